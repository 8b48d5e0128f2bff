package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"PDFMarkup/internal/geometry"
)

// ImageRef names an image embedded in a document under construction.
type ImageRef string

// Builder assembles an output document from page rasters. Units are PDF points.
type Builder interface {
	AddPage(size geometry.Size)
	EmbedImage(name string, png []byte) (ImageRef, error)
	DrawImage(ref ImageRef, box geometry.Box)
	Save(w io.Writer) error
}

// PDFBuilder is a Builder backed by gofpdf.
type PDFBuilder struct {
	pdf *gofpdf.Fpdf
}

var pngOptions = gofpdf.ImageOptions{ImageType: "PNG"}

// NewPDFBuilder starts an empty document.
func NewPDFBuilder() *PDFBuilder {
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 612, Ht: 792},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.SetCreator("PDFMarkup", true)
	return &PDFBuilder{pdf: p}
}

// AddPage appends a page of the given size and makes it current.
func (b *PDFBuilder) AddPage(size geometry.Size) {
	b.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
}

// EmbedImage registers PNG data under name.
func (b *PDFBuilder) EmbedImage(name string, png []byte) (ImageRef, error) {
	b.pdf.RegisterImageOptionsReader(name, pngOptions, bytes.NewReader(png))
	if b.pdf.Err() {
		return "", fmt.Errorf("embedding image %s: %w", name, b.pdf.Error())
	}
	return ImageRef(name), nil
}

// DrawImage places an embedded image on the current page.
func (b *PDFBuilder) DrawImage(ref ImageRef, box geometry.Box) {
	b.pdf.ImageOptions(string(ref), box.X, box.Y, box.Width, box.Height, false, pngOptions, 0, "")
}

// Save writes the finished document.
func (b *PDFBuilder) Save(w io.Writer) error {
	if b.pdf.Err() {
		return b.pdf.Error()
	}
	return b.pdf.Output(w)
}

// PageCount returns the number of pages added so far.
func (b *PDFBuilder) PageCount() int {
	return b.pdf.PageCount()
}
