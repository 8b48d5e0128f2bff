package render

import (
	"image"

	"github.com/disintegration/imaging"
)

// blurMask returns a Gaussian-blurred copy of mask with the same bounds.
func blurMask(mask *image.Alpha, sigma float64) *image.Alpha {
	if sigma <= 0 || mask.Bounds().Empty() {
		return mask
	}

	blurred := imaging.Blur(mask, sigma)
	out := image.NewAlpha(mask.Bounds())
	origin := mask.Bounds().Min
	b := blurred.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := blurred.Pix[blurred.PixOffset(x, y)+3]
			out.Pix[out.PixOffset(x-b.Min.X+origin.X, y-b.Min.Y+origin.Y)] = a
		}
	}
	return out
}

// blurRegion returns a Gaussian-blurred copy of r within img, with bounds starting at (0,0).
func blurRegion(img *image.RGBA, r image.Rectangle, sigma float64) *image.NRGBA {
	sub := img.SubImage(r)
	if sigma <= 0 {
		return imaging.Clone(sub)
	}
	return imaging.Blur(sub, sigma)
}
