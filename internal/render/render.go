package render

import (
	"fmt"
	"image"

	"PDFMarkup/internal/state"
)

// Renderer paints one operation onto a surface.
type Renderer interface {
	Draw(dst *image.RGBA, op state.EditOperation) error
}

// Replay draws ops onto dst in order, so later operations cover earlier ones.
func Replay(r Renderer, dst *image.RGBA, ops []state.EditOperation) error {
	for _, op := range ops {
		if err := r.Draw(dst, op); err != nil {
			return fmt.Errorf("drawing %s operation %s: %w", op.Type, op.ID, err)
		}
	}
	return nil
}

// drawTextOp is shared by both renderers: text looks the same everywhere.
func drawTextOp(fonts *FontBook, dst *image.RGBA, op state.EditOperation, props state.TextProps, scale float64) error {
	if len(op.Points) == 0 || props.Text == "" {
		return nil
	}
	anchor := op.Points[0]
	return fonts.drawText(dst, props.Text, props.FontFamily, float64(props.FontSize)*scale,
		parseHexColor(props.Color), anchor.X*scale, anchor.Y*scale)
}
