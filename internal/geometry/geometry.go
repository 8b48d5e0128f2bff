// Package geometry maps pointer input into document space and measures recorded paths.
package geometry

import "math"

// Point is a position in document-pixel space at the reference scale.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// Box is an axis-aligned rectangle
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Map converts a raw pointer position into document space.
// box is the on-screen bounding box of the surface, intrinsic its pixel size and displayed the size
// it is currently shown at. No clamping is done: positions outside the surface map outside the page.
func Map(raw Point, box Box, intrinsic, displayed Size) Point {
	return Point{
		X: (raw.X - box.X) * ratio(intrinsic.Width, displayed.Width),
		Y: (raw.Y - box.Y) * ratio(intrinsic.Height, displayed.Height),
	}
}

func ratio(intrinsic, displayed float64) float64 {
	if displayed == 0 {
		return 1
	}
	return intrinsic / displayed
}

// Bounds returns the bounding box of points grown by padding on every side.
// The zero Box is returned for an empty slice.
func Bounds(points []Point, padding float64) Box {
	if len(points) == 0 {
		return Box{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return Box{
		X:      minX - padding,
		Y:      minY - padding,
		Width:  maxX - minX + 2*padding,
		Height: maxY - minY + 2*padding,
	}
}

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}
