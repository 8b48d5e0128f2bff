package render

import (
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"PDFMarkup/internal/geometry"
)

// strokeMask rasterizes points as one connected path of the given width with round caps and joins,
// or as a filled dot of diameter width when there is a single point. Coordinates are already in
// surface pixels. The returned mask covers the whole surface, whose origin must be (0,0), and holds
// coverage in its alpha channel.
func strokeMask(points []geometry.Point, width float64, surface image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(surface)
	if len(points) == 0 || width <= 0 || surface.Empty() {
		return mask
	}

	w, h := surface.Dx(), surface.Dy()
	scanner := rasterx.NewScannerGV(w, h, mask, surface)

	if len(points) == 1 {
		filler := rasterx.NewFiller(w, h, scanner)
		filler.SetColor(color.White)
		rasterx.AddCircle(points[0].X, points[0].Y, width/2, filler)
		filler.Draw()
		return mask
	}

	stroker := rasterx.NewStroker(w, h, scanner)
	stroker.SetColor(color.White)
	stroker.SetStroke(toFixed(width), toFixed(4), rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round)
	stroker.Start(toFixedPoint(points[0]))
	for _, p := range points[1:] {
		stroker.Line(toFixedPoint(p))
	}
	stroker.Stop(false)
	stroker.Draw()
	return mask
}

// strokeBounds is the pixel rectangle a stroke of width can touch once blurred by sigma,
// clipped to the surface.
func strokeBounds(points []geometry.Point, width, sigma float64, surface image.Rectangle) image.Rectangle {
	pad := width/2 + 3*sigma + 2
	b := geometry.Bounds(points, pad)
	r := image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)),
		int(math.Ceil(b.Y+b.Height)),
	)
	return r.Intersect(surface)
}

func scalePoints(points []geometry.Point, scale float64) []geometry.Point {
	scaled := make([]geometry.Point, len(points))
	for i, p := range points {
		scaled[i] = geometry.Point{X: p.X * scale, Y: p.Y * scale}
	}
	return scaled
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func toFixedPoint(p geometry.Point) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}
