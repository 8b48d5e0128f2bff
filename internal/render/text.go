package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrFontsNotReady is returned when text is drawn before FontBook.Init.
var ErrFontsNotReady = errors.New("font book not initialized")

type fontKind int

const (
	fontSans fontKind = iota
	fontMono
)

type faceKey struct {
	kind fontKind
	size float64
}

// FontBook resolves font families to faces. Init must run once before any text is drawn.
type FontBook struct {
	once    sync.Once
	initErr error

	mu    sync.Mutex
	fonts map[fontKind]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFontBook returns an uninitialized font book.
func NewFontBook() *FontBook {
	return &FontBook{}
}

// Init parses the bundled fonts. Calling it again is a no-op that returns the first result.
func (b *FontBook) Init() error {
	b.once.Do(func() {
		fonts := make(map[fontKind]*opentype.Font, 2)
		for kind, ttf := range map[fontKind][]byte{fontSans: goregular.TTF, fontMono: gomono.TTF} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				b.initErr = fmt.Errorf("parsing bundled font: %w", err)
				return
			}
			fonts[kind] = f
		}

		b.mu.Lock()
		b.fonts = fonts
		b.faces = make(map[faceKey]font.Face)
		b.mu.Unlock()
	})
	return b.initErr
}

// Face returns a face for family at sizePx pixels per em.
// Unknown families fall back to the sans face.
func (b *FontBook) Face(family string, sizePx float64) (font.Face, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fonts == nil {
		return nil, ErrFontsNotReady
	}

	key := faceKey{kind: familyKind(family), size: sizePx}
	if face, ok := b.faces[key]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(b.fonts[key.kind], &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %q face at %gpx: %w", family, sizePx, err)
	}
	b.faces[key] = face
	return face, nil
}

func familyKind(family string) fontKind {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "courier", "courier new", "monospace", "consolas", "menlo":
		return fontMono
	}
	return fontSans
}

// drawText paints text with its top edge at (x, y), growing downward.
// opentype faces are not safe for concurrent use, so drawing holds the book's lock.
func (b *FontBook) drawText(dst *image.RGBA, text, family string, sizePx float64, col color.NRGBA, x, y float64) error {
	face, err := b.Face(family, sizePx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ascent := face.Metrics().Ascent
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(x * 64)),
			Y: fixed.Int26_6(math.Round(y*64)) + ascent,
		},
	}
	d.DrawString(text)
	return nil
}
