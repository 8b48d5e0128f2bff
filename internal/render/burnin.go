package render

import (
	"fmt"
	"image"
	"image/color"

	"PDFMarkup/internal/state"
)

var (
	// washColor is the light covering paint laid over blurred page content.
	washColor   = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
	washOpacity = 0.85
)

// BurnIn paints operations permanently into a rasterized page for export.
// Blur really hides the content underneath: the page pixels under the stroke are replaced by a
// blurred copy and covered with a light wash. Erase strokes only existed to remove overlay marks
// while editing, so they leave no trace here.
type BurnIn struct {
	fonts *FontBook
	scale float64
}

// NewBurnIn returns an export renderer drawing reference coordinates at scale.
func NewBurnIn(fonts *FontBook, scale float64) *BurnIn {
	return &BurnIn{fonts: fonts, scale: scale}
}

// Scale returns the reference-to-raster factor.
func (b *BurnIn) Scale() float64 {
	return b.scale
}

// Draw paints a single operation.
func (b *BurnIn) Draw(dst *image.RGBA, op state.EditOperation) error {
	if len(op.Points) == 0 {
		return nil
	}

	switch props := op.Properties.(type) {
	case state.BlurProps:
		points := scalePoints(op.Points, b.scale)
		width := float64(props.BrushSize) * b.scale
		sigma := float64(props.Intensity) * b.scale

		region := strokeBounds(points, width, sigma, dst.Bounds())
		if region.Empty() {
			return nil
		}
		mask := strokeMask(points, width, dst.Bounds())
		soft := blurMask(mask.SubImage(region).(*image.Alpha), sigma)

		mixImage(dst, blurRegion(dst, region, sigma), soft)
		fillMask(dst, soft, washColor, washOpacity, BlendSourceOver)

	case state.EraseProps:
		// no burned-in representation

	case state.TextProps:
		return drawTextOp(b.fonts, dst, op, props, b.scale)

	default:
		return fmt.Errorf("unsupported properties %T", op.Properties)
	}
	return nil
}

// Burn replays ops onto a page raster in order.
func (b *BurnIn) Burn(page *image.RGBA, ops []state.EditOperation) error {
	return Replay(b, page, ops)
}
