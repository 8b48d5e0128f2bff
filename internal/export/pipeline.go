// Package export flattens edited pages into a new PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"PDFMarkup/internal/document"
	"PDFMarkup/internal/geometry"
	"PDFMarkup/internal/render"
	"PDFMarkup/internal/state"
	apperrors "PDFMarkup/pkg/errors"
)

// Pipeline rasterizes every page, burns in its operations and reassembles a document.
type Pipeline struct {
	renderer   *render.BurnIn
	newBuilder func() Builder
	logger     *zap.Logger
}

// NewPipeline creates a pipeline. newBuilder is called once per run; nil means gofpdf.
func NewPipeline(renderer *render.BurnIn, newBuilder func() Builder, logger *zap.Logger) *Pipeline {
	if newBuilder == nil {
		newBuilder = func() Builder { return NewPDFBuilder() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{renderer: renderer, newBuilder: newBuilder, logger: logger}
}

// Run exports doc with edits applied, pages in ascending order. Any failure aborts the whole run
// and no partial output is returned.
func (p *Pipeline) Run(ctx context.Context, doc document.Document, edits *state.PageEditSet) ([]byte, error) {
	start := time.Now()
	builder := p.newBuilder()
	scale := p.renderer.Scale()

	for page := 1; page <= doc.NumPages(); page++ {
		if err := p.addPage(ctx, builder, doc, page, edits.Operations(page), scale); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := builder.Save(&out); err != nil {
		return nil, apperrors.NewExportFailureError("saving document", err)
	}

	p.logger.Info("export finished",
		zap.Int("pages", doc.NumPages()),
		zap.Int("edited_pages", edits.Len()),
		zap.Int("bytes", out.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return out.Bytes(), nil
}

func (p *Pipeline) addPage(ctx context.Context, builder Builder, doc document.Document, page int, ops []state.EditOperation, scale float64) error {
	fail := func(msg string, err error) error {
		return apperrors.NewExportFailureError(msg, err).WithPage(page)
	}

	size, err := doc.PageSize(page)
	if err != nil {
		return fail("reading page size", err)
	}
	raster, err := doc.RenderPage(ctx, page, scale)
	if err != nil {
		return fail("rasterizing page", err)
	}
	if err := p.renderer.Burn(raster, ops); err != nil {
		return fail("burning in edits", err)
	}

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, raster, imaging.PNG); err != nil {
		return fail("encoding page image", err)
	}

	builder.AddPage(size)
	ref, err := builder.EmbedImage(fmt.Sprintf("page-%d", page), encoded.Bytes())
	if err != nil {
		return fail("embedding page image", err)
	}
	builder.DrawImage(ref, geometry.Box{Width: size.Width, Height: size.Height})

	p.logger.Debug("page exported", zap.Int("page", page), zap.Int("operations", len(ops)))
	return nil
}
