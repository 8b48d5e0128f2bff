// Package render paints edit operations onto raster surfaces.
//
// Two renderers share the same primitives: Overlay paints onto the transparent layer shown above
// the page while editing, BurnIn paints into the final page raster on export. They deliberately
// disagree on how blur and erase look.
package render

import (
	"image"
	"image/color"
)

// BlendMode specifies how a source color is combined with the surface.
type BlendMode int

const (
	BlendSourceOver BlendMode = iota
	// BlendMultiply darkens: result = source * destination where both are present.
	BlendMultiply
	// BlendDestinationOut removes destination pixels wherever the source has coverage.
	BlendDestinationOut
)

func (m BlendMode) String() string {
	switch m {
	case BlendSourceOver:
		return "SourceOver"
	case BlendMultiply:
		return "Multiply"
	case BlendDestinationOut:
		return "DestinationOut"
	default:
		return "Unknown"
	}
}

// NewSurface returns a fully transparent surface of the given size.
func NewSurface(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Clear makes every pixel of dst transparent.
func Clear(dst *image.RGBA) {
	for i := range dst.Pix {
		dst.Pix[i] = 0
	}
}

// fillMask composites src onto dst through mask. Each pixel's source alpha is
// src.A * opacity * coverage.
func fillMask(dst *image.RGBA, mask *image.Alpha, src color.NRGBA, opacity float64, mode BlendMode) {
	r := mask.Bounds().Intersect(dst.Bounds())
	sr := float64(src.R) / 255
	sg := float64(src.G) / 255
	sb := float64(src.B) / 255
	sa := float64(src.A) / 255 * opacity

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cov := float64(mask.AlphaAt(x, y).A) / 255
			if cov == 0 {
				continue
			}
			blendPixel(dst, x, y, [3]float64{sr, sg, sb}, sa*cov, mode)
		}
	}
}

// blendPixel applies one source sample (straight color, alpha as) to dst at (x, y).
// dst stores premultiplied color.
func blendPixel(dst *image.RGBA, x, y int, cs [3]float64, as float64, mode BlendMode) {
	i := dst.PixOffset(x, y)
	px := dst.Pix[i : i+4 : i+4]
	cb := [3]float64{float64(px[0]) / 255, float64(px[1]) / 255, float64(px[2]) / 255}
	ab := float64(px[3]) / 255

	var co [3]float64
	var ao float64

	switch mode {
	case BlendDestinationOut:
		for c := 0; c < 3; c++ {
			co[c] = cb[c] * (1 - as)
		}
		ao = ab * (1 - as)

	case BlendMultiply:
		for c := 0; c < 3; c++ {
			straight := 0.0
			if ab > 0 {
				straight = cb[c] / ab
			}
			mixed := (1-ab)*cs[c] + ab*(cs[c]*straight)
			co[c] = as*mixed + (1-as)*cb[c]
		}
		ao = as + ab*(1-as)

	default:
		for c := 0; c < 3; c++ {
			co[c] = cs[c]*as + cb[c]*(1-as)
		}
		ao = as + ab*(1-as)
	}

	px[0] = unit8(co[0])
	px[1] = unit8(co[1])
	px[2] = unit8(co[2])
	px[3] = unit8(ao)
}

// mixImage lays src (anchored at r.Min of dst) over dst with per-pixel alpha from mask.
func mixImage(dst *image.RGBA, src *image.NRGBA, mask *image.Alpha) {
	r := mask.Bounds().Intersect(dst.Bounds())
	origin := mask.Bounds().Min

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cov := float64(mask.AlphaAt(x, y).A) / 255
			if cov == 0 {
				continue
			}
			s := src.NRGBAAt(x-origin.X, y-origin.Y)
			as := float64(s.A) / 255 * cov
			blendPixel(dst, x, y, [3]float64{float64(s.R) / 255, float64(s.G) / 255, float64(s.B) / 255}, as, BlendSourceOver)
		}
	}
}

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
