// Package documenttest provides an in-memory rasterizer for tests.
package documenttest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"PDFMarkup/internal/document"
	"PDFMarkup/internal/geometry"
	apperrors "PDFMarkup/pkg/errors"
)

// Rasterizer opens every input as a document of white pages.
type Rasterizer struct {
	Pages    int
	PageSize geometry.Size
	// LoadErr, when set, makes Load fail with a load failure wrapping it.
	LoadErr error
	// PageErrs makes RenderPage fail for the given pages.
	PageErrs map[int]error
	// OnRender, when set, runs at the start of every RenderPage and may block to hold a render open.
	OnRender func(page int)

	mu        sync.Mutex
	inits     int
	loaded    []*Doc
	rendered  []int
	lastScale float64
}

// NewRasterizer returns a rasterizer producing pages of the given size in points.
func NewRasterizer(pages int, size geometry.Size) *Rasterizer {
	return &Rasterizer{Pages: pages, PageSize: size, PageErrs: map[int]error{}}
}

func (r *Rasterizer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

func (r *Rasterizer) Load(data []byte) (document.Document, error) {
	if r.LoadErr != nil {
		return nil, apperrors.NewLoadFailureError("cannot parse document", r.LoadErr)
	}
	d := &Doc{r: r}
	r.mu.Lock()
	r.loaded = append(r.loaded, d)
	r.mu.Unlock()
	return d, nil
}

// Loaded returns the documents opened so far, in load order.
func (r *Rasterizer) Loaded() []*Doc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Doc(nil), r.loaded...)
}

// Inits returns how many times Init was called.
func (r *Rasterizer) Inits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits
}

// Rendered returns the pages rendered so far, in call order.
func (r *Rasterizer) Rendered() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rendered...)
}

// LastScale returns the scale of the most recent render.
func (r *Rasterizer) LastScale() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastScale
}

// Reset forgets recorded renders.
func (r *Rasterizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = nil
}

// Doc is a document opened by Rasterizer. Reads after Close fail, like a real backend.
type Doc struct {
	r         *Rasterizer
	rendering int
	closed    bool
	// closedWhileRendering is set if Close ran while a RenderPage was still in progress.
	closedWhileRendering bool
}

func (d *Doc) NumPages() int { return d.r.Pages }

func (d *Doc) PageSize(page int) (geometry.Size, error) {
	if page < 1 || page > d.r.Pages {
		return geometry.Size{}, fmt.Errorf("page %d out of range", page)
	}
	return d.r.PageSize, nil
}

func (d *Doc) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.r.mu.Lock()
	if d.closed {
		d.r.mu.Unlock()
		return nil, document.ErrDocumentClosed
	}
	d.rendering++
	d.r.mu.Unlock()
	defer func() {
		d.r.mu.Lock()
		d.rendering--
		d.r.mu.Unlock()
	}()

	if d.r.OnRender != nil {
		d.r.OnRender(page)
	}

	d.r.mu.Lock()
	d.r.rendered = append(d.r.rendered, page)
	d.r.lastScale = scale
	err := d.r.PageErrs[page]
	d.r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if page < 1 || page > d.r.Pages {
		return nil, fmt.Errorf("page %d out of range", page)
	}

	w := int(math.Round(d.r.PageSize.Width * scale))
	h := int(math.Round(d.r.PageSize.Height * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

func (d *Doc) Close() error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	if d.rendering > 0 {
		d.closedWhileRendering = true
	}
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *Doc) Closed() bool {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	return d.closed
}

// ClosedWhileRendering reports whether Close ran while a page of d was being rendered.
func (d *Doc) ClosedWhileRendering() bool {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	return d.closedWhileRendering
}
