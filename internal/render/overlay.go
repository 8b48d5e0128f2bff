package render

import (
	"fmt"
	"image"
	"image/color"

	"PDFMarkup/internal/state"
)

var (
	// overlayBlurColor is the translucent gray a blur stroke is previewed with.
	overlayBlurColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	overlayBlurAlpha = 0.7
	eraseColor       = color.NRGBA{A: 255}
)

// Overlay previews operations on the transparent layer above the rendered page.
// Nothing it paints touches the page itself: blur multiplies a gray smear into the layer
// and erase cuts holes in the layer only.
type Overlay struct {
	fonts *FontBook
	scale float64
}

// NewOverlay returns an overlay renderer drawing reference coordinates at scale.
func NewOverlay(fonts *FontBook, scale float64) *Overlay {
	return &Overlay{fonts: fonts, scale: scale}
}

// Draw paints a single operation.
func (o *Overlay) Draw(dst *image.RGBA, op state.EditOperation) error {
	if len(op.Points) == 0 {
		return nil
	}

	switch props := op.Properties.(type) {
	case state.BlurProps:
		points := scalePoints(op.Points, o.scale)
		width := float64(props.BrushSize) * o.scale
		sigma := float64(props.Intensity) * o.scale

		mask := strokeMask(points, width, dst.Bounds())
		region := strokeBounds(points, width, sigma, dst.Bounds())
		if region.Empty() {
			return nil
		}
		soft := blurMask(mask.SubImage(region).(*image.Alpha), sigma)
		fillMask(dst, soft, overlayBlurColor, overlayBlurAlpha, BlendMultiply)

	case state.EraseProps:
		points := scalePoints(op.Points, o.scale)
		mask := strokeMask(points, float64(props.Size)*o.scale, dst.Bounds())
		fillMask(dst, mask, eraseColor, 1, BlendDestinationOut)

	case state.TextProps:
		return drawTextOp(o.fonts, dst, op, props, o.scale)

	default:
		return fmt.Errorf("unsupported properties %T", op.Properties)
	}
	return nil
}

// Repaint clears dst and replays ops from scratch, then the stroke still being drawn, if any.
func (o *Overlay) Repaint(dst *image.RGBA, ops []state.EditOperation, pending *state.EditOperation) error {
	Clear(dst)
	if err := Replay(o, dst, ops); err != nil {
		return err
	}
	if pending != nil {
		return o.Draw(dst, *pending)
	}
	return nil
}
