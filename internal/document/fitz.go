package document

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"PDFMarkup/internal/geometry"
	apperrors "PDFMarkup/pkg/errors"
)

// pointsPerInch is the PDF user-space unit; rendering at this DPI is scale 1.
const pointsPerInch = 72.0

// FitzRasterizer renders PDFs with MuPDF.
type FitzRasterizer struct {
	logger *zap.Logger
	once   sync.Once
	ready  bool
}

// NewFitzRasterizer creates a rasterizer; call Init before Load.
func NewFitzRasterizer(logger *zap.Logger) *FitzRasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FitzRasterizer{logger: logger}
}

// Init marks the rasterizer ready. MuPDF needs no global setup, but the session still calls this
// once so that no backend is ever initialized as a side effect of the first load.
func (r *FitzRasterizer) Init() error {
	r.once.Do(func() {
		r.ready = true
		r.logger.Debug("rasterizer initialized", zap.String("backend", "mupdf"))
	})
	return nil
}

// Load parses a PDF held in memory.
func (r *FitzRasterizer) Load(data []byte) (Document, error) {
	if !r.ready {
		return nil, apperrors.NewLoadFailureError("rasterizer not initialized", nil)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, apperrors.NewLoadFailureError("cannot parse document", err)
	}
	if doc.NumPage() < 1 {
		doc.Close()
		return nil, apperrors.NewLoadFailureError("document has no pages", nil)
	}
	return newFitzDocument(doc), nil
}

// fitzDocument serializes Close against reads: MuPDF frees its context on Close, so no page may be
// rendering or measured while that happens.
type fitzDocument struct {
	mu     sync.RWMutex
	doc    *fitz.Document
	pages  int
	closed bool
}

func newFitzDocument(doc *fitz.Document) *fitzDocument {
	return &fitzDocument{doc: doc, pages: doc.NumPage()}
}

func (d *fitzDocument) NumPages() int {
	return d.pages
}

func (d *fitzDocument) PageSize(page int) (geometry.Size, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return geometry.Size{}, ErrDocumentClosed
	}
	if err := checkPage(page, d.pages); err != nil {
		return geometry.Size{}, err
	}
	bounds, err := d.doc.Bound(page - 1)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("reading bounds of page %d: %w", page, err)
	}
	return geometry.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}, nil
}

func (d *fitzDocument) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if err := checkPage(page, d.pages); err != nil {
		return nil, err
	}
	img, err := d.doc.ImageDPI(page-1, pointsPerInch*scale)
	if err != nil {
		return nil, fmt.Errorf("rasterizing page %d at scale %g: %w", page, scale, err)
	}
	return normalize(img), nil
}

// Close waits for in-progress reads and releases MuPDF resources. Later calls are no-ops.
func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.doc.Close()
}
