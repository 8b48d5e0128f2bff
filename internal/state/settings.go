package state

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "PDFMarkup/pkg/errors"
)

// FontSizes are the text sizes offered by the settings panel.
var FontSizes = []int{12, 14, 16, 18, 24, 32}

// BlurSettings are the defaults for new blur strokes.
type BlurSettings struct {
	Intensity int `validate:"min=1,max=10"`
	BrushSize int `validate:"min=5,max=50"`
}

// TextSettings are the defaults for new text stamps.
type TextSettings struct {
	FontSize   int    `validate:"oneof=12 14 16 18 24 32"`
	Color      string `validate:"required,hexcolor"`
	FontFamily string `validate:"required"`
}

// EraseSettings are the defaults for new erase strokes.
type EraseSettings struct {
	Size int `validate:"min=5,max=50"`
}

// ToolSettings groups the per-tool defaults edited by the options panel.
type ToolSettings struct {
	Blur  BlurSettings
	Text  TextSettings
	Erase EraseSettings
}

// DefaultToolSettings returns the settings a fresh session starts with.
func DefaultToolSettings() ToolSettings {
	return ToolSettings{
		Blur:  BlurSettings{Intensity: 5, BrushSize: 20},
		Text:  TextSettings{FontSize: 14, Color: "#000000", FontFamily: "Arial"},
		Erase: EraseSettings{Size: 15},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks every tool's settings against its allowed range.
func (s ToolSettings) Validate() error {
	if err := settingsValidator().Struct(s); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("invalid tool settings: %v", err))
	}
	return nil
}

// BlurPatch is a partial update; nil fields keep their current value.
type BlurPatch struct {
	Intensity *int
	BrushSize *int
}

// TextPatch is a partial update; nil fields keep their current value.
type TextPatch struct {
	FontSize   *int
	Color      *string
	FontFamily *string
}

// ErasePatch is a partial update; nil fields keep their current value.
type ErasePatch struct {
	Size *int
}

// Int returns a pointer to v, for building patches.
func Int(v int) *int { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// WithBlur merges p into the blur settings. Other tools are untouched.
// The receiver is returned unchanged with an error if the result is invalid.
func (s ToolSettings) WithBlur(p BlurPatch) (ToolSettings, error) {
	next := s
	if p.Intensity != nil {
		next.Blur.Intensity = *p.Intensity
	}
	if p.BrushSize != nil {
		next.Blur.BrushSize = *p.BrushSize
	}
	return s.accept(next)
}

// WithText merges p into the text settings. Other tools are untouched.
func (s ToolSettings) WithText(p TextPatch) (ToolSettings, error) {
	next := s
	if p.FontSize != nil {
		next.Text.FontSize = *p.FontSize
	}
	if p.Color != nil {
		next.Text.Color = *p.Color
	}
	if p.FontFamily != nil {
		next.Text.FontFamily = *p.FontFamily
	}
	return s.accept(next)
}

// WithErase merges p into the erase settings. Other tools are untouched.
func (s ToolSettings) WithErase(p ErasePatch) (ToolSettings, error) {
	next := s
	if p.Size != nil {
		next.Erase.Size = *p.Size
	}
	return s.accept(next)
}

func (s ToolSettings) accept(next ToolSettings) (ToolSettings, error) {
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Snapshot copies the current settings of tool into a Properties value.
// Text properties come back without text; the capture fills it in once the user supplies it.
func (s ToolSettings) Snapshot(tool Tool) (Properties, bool) {
	switch tool {
	case ToolBlur:
		return BlurProps{Intensity: s.Blur.Intensity, BrushSize: s.Blur.BrushSize}, true
	case ToolErase:
		return EraseProps{Size: s.Erase.Size}, true
	case ToolText:
		return TextProps{FontSize: s.Text.FontSize, Color: s.Text.Color, FontFamily: s.Text.FontFamily}, true
	}
	return nil, false
}
