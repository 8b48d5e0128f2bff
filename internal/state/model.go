package state

import (
	"time"

	"PDFMarkup/internal/geometry"
)

// Point is a captured position in document space.
type Point = geometry.Point

// Tool selects what a pointer gesture produces.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolBlur   Tool = "blur"
	ToolErase  Tool = "erase"
	ToolText   Tool = "text"
)

// Drawable reports whether gestures with this tool produce an operation.
func (t Tool) Drawable() bool {
	return t == ToolBlur || t == ToolErase || t == ToolText
}

// Properties holds the parameters an operation was created with.
// It is one of BlurProps, EraseProps or TextProps.
type Properties interface {
	Tool() Tool
}

// BlurProps parameterizes a blur stroke.
type BlurProps struct {
	Intensity int
	BrushSize int
}

func (BlurProps) Tool() Tool { return ToolBlur }

// EraseProps parameterizes an erase stroke.
type EraseProps struct {
	Size int
}

func (EraseProps) Tool() Tool { return ToolErase }

// TextProps parameterizes a text stamp.
type TextProps struct {
	FontSize   int
	Color      string
	FontFamily string
	Text       string
}

func (TextProps) Tool() Tool { return ToolText }

// StrokeWidth returns the width a stroke operation is drawn with, or 0 for text.
func StrokeWidth(p Properties) float64 {
	switch v := p.(type) {
	case BlurProps:
		return float64(v.BrushSize)
	case EraseProps:
		return float64(v.Size)
	}
	return 0
}

// EditOperation is one drawing gesture.
// Points are in capture order; text operations carry exactly one anchor point.
type EditOperation struct {
	ID         string
	Type       Tool
	Points     []Point
	Properties Properties
	Timestamp  time.Time
}

// Clone returns a copy that shares no memory with op.
func (op EditOperation) Clone() EditOperation {
	c := op
	c.Points = append([]Point(nil), op.Points...)
	return c
}

// PageEdits is the ordered list of operations recorded on one page.
type PageEdits struct {
	PageNumber int
	Operations []EditOperation
}
