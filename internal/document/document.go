// Package document loads input PDFs and rasterizes their pages.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gabriel-vasile/mimetype"

	"PDFMarkup/internal/geometry"
	apperrors "PDFMarkup/pkg/errors"
)

const pdfMIME = "application/pdf"

// ErrDocumentClosed is returned by reads on a document that has been closed.
var ErrDocumentClosed = errors.New("document is closed")

// Rasterizer opens documents for page rendering.
type Rasterizer interface {
	// Init prepares the rasterizer. It is called once at session start and is idempotent.
	Init() error
	// Load parses data into a document.
	Load(data []byte) (Document, error)
}

// Document is an opened input document. Pages are 1-indexed.
type Document interface {
	NumPages() int
	// PageSize returns the page size in points, which is also its pixel size at scale 1.
	PageSize(page int) (geometry.Size, error)
	// RenderPage rasterizes page; output dimensions scale linearly with scale.
	RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error)
	Close() error
}

// ValidateInput rejects input that must never reach the rasterizer: empty files, files larger
// than maxBytes and anything that does not sniff as a PDF.
func ValidateInput(name string, data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("%s is empty", name))
	}
	if int64(len(data)) > maxBytes {
		return apperrors.NewInvalidInputError(fmt.Sprintf("File too large: please select a PDF file smaller than %dMB", maxBytes/(1024*1024)))
	}
	if mtype := mimetype.Detect(data); !mtype.Is(pdfMIME) {
		return apperrors.NewInvalidInputError(fmt.Sprintf("Invalid file type %s: please select a PDF file", mtype.String()))
	}
	return nil
}

// normalize returns img with its origin at (0,0), copying only when needed.
func normalize(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

func checkPage(page, total int) error {
	if page < 1 || page > total {
		return fmt.Errorf("page %d out of range [1,%d]", page, total)
	}
	return nil
}
