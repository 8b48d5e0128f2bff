// Package editor owns the state of one open document and routes user commands to it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"go.uber.org/zap"

	"PDFMarkup/internal/config"
	"PDFMarkup/internal/document"
	"PDFMarkup/internal/export"
	"PDFMarkup/internal/geometry"
	"PDFMarkup/internal/render"
	"PDFMarkup/internal/state"
	apperrors "PDFMarkup/pkg/errors"
)

const (
	MinZoom     = 50
	MaxZoom     = 200
	ZoomStep    = 25
	DefaultZoom = 100
)

var (
	ErrNoDocument     = errors.New("no document loaded")
	ErrPageOutOfRange = errors.New("page out of range")
)

// Session is the editing state for one loaded document.
// Methods are safe to call from the UI goroutine while an export runs on another.
type Session struct {
	mu sync.Mutex

	cfg        *config.Config
	logger     *zap.Logger
	rasterizer document.Rasterizer
	fonts      *render.FontBook
	overlay    *render.Overlay
	pipeline   *export.Pipeline
	capture    *state.Capture
	initOnce   sync.Once
	initErr    error

	doc        *openDocument
	fileName   string
	pageSize   geometry.Size
	tool       state.Tool
	page       int
	totalPages int
	zoom       int
	edits      *state.PageEditSet
	settings   state.ToolSettings
	exporting  bool

	// committed holds the replay of the current page's stored operations; surface is what is shown.
	committed *image.RGBA
	surface   *image.RGBA

	onOverlayChanged func(*image.RGBA)
}

// openDocument counts the renders and exports still reading a document,
// so that it is closed only once they have all returned.
type openDocument struct {
	document.Document
	readers sync.WaitGroup
}

// acquireLocked marks a read of the current document. The caller holds s.mu and must call Done.
func (s *Session) acquireLocked() *openDocument {
	if s.doc == nil {
		return nil
	}
	s.doc.readers.Add(1)
	return s.doc
}

func (s *Session) closeWhenIdle(doc *openDocument) error {
	doc.readers.Wait()
	err := doc.Close()
	if err != nil {
		s.logger.Warn("closing document", zap.Error(err))
	}
	return err
}

// Option customizes a Session.
type Option func(*options)

type options struct {
	newBuilder func() export.Builder
}

// WithBuilder replaces the gofpdf document builder used on export.
func WithBuilder(newBuilder func() export.Builder) Option {
	return func(o *options) { o.newBuilder = newBuilder }
}

// NewSession creates an empty session. Call Init before loading a document.
func NewSession(cfg *config.Config, rasterizer document.Rasterizer, logger *zap.Logger, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fonts := render.NewFontBook()
	return &Session{
		cfg:        cfg,
		logger:     logger,
		rasterizer: rasterizer,
		fonts:      fonts,
		overlay:    render.NewOverlay(fonts, 1),
		pipeline:   export.NewPipeline(render.NewBurnIn(fonts, cfg.ExportScale), o.newBuilder, logger),
		capture:    state.NewCapture(),
		tool:       state.ToolSelect,
		zoom:       DefaultZoom,
		edits:      state.NewPageEditSet(),
		settings:   state.DefaultToolSettings(),
	}
}

// Init prepares fonts and the rasterizer. Only the first call does any work.
func (s *Session) Init() error {
	s.initOnce.Do(func() {
		if err := s.fonts.Init(); err != nil {
			s.initErr = fmt.Errorf("initializing fonts: %w", err)
			return
		}
		if err := s.rasterizer.Init(); err != nil {
			s.initErr = fmt.Errorf("initializing rasterizer: %w", err)
			return
		}
		s.logger.Info("session initialized", zap.Float64("export_scale", s.cfg.ExportScale))
	})
	return s.initErr
}

// OnOverlayChanged registers fn to be called with the overlay surface after every repaint.
// fn runs without the session lock held.
func (s *Session) OnOverlayChanged(fn func(*image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOverlayChanged = fn
}

// LoadDocument validates and opens data, replacing the current document.
// Invalid input and load failures leave the session exactly as it was.
func (s *Session) LoadDocument(name string, data []byte) error {
	if err := document.ValidateInput(name, data, s.cfg.MaxUploadBytes); err != nil {
		return err
	}

	s.mu.Lock()
	busy := s.exporting
	s.mu.Unlock()
	if busy {
		return apperrors.NewConflictError("An export is in progress. Try again when it finishes.")
	}

	doc, err := s.rasterizer.Load(data)
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewLoadFailureError("cannot parse document", err)
		}
		s.logger.Warn("document load failed", zap.String("file", name), zap.Error(err))
		return err
	}
	size, err := doc.PageSize(1)
	if err != nil {
		doc.Close()
		return apperrors.NewLoadFailureError("cannot read first page", err)
	}

	s.mu.Lock()
	previous := s.doc
	s.doc = &openDocument{Document: doc}
	s.fileName = name
	s.totalPages = doc.NumPages()
	s.page = 1
	s.zoom = DefaultZoom
	s.pageSize = size
	s.edits.Reset()
	s.capture.Cancel()
	s.rebuildLocked()
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if previous != nil {
		go s.closeWhenIdle(previous)
	}
	s.logger.Info("document loaded",
		zap.String("file", name),
		zap.Int("pages", doc.NumPages()),
		zap.Int("bytes", len(data)),
	)
	s.emit(notify, surface)
	return nil
}

// Close releases the open document once any page render still reading it returns.
// It fails with a conflict error while an export is running.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return apperrors.NewConflictError("An export is in progress. Try again when it finishes.")
	}
	doc := s.doc
	s.doc = nil
	s.mu.Unlock()

	if doc == nil {
		return nil
	}
	return s.closeWhenIdle(doc)
}

// SetTool selects the tool for subsequent gestures.
func (s *Session) SetTool(tool state.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = tool
}

// SetZoom sets the zoom percentage, clamped to [MinZoom, MaxZoom], and returns the value applied.
func (s *Session) SetZoom(zoom int) int {
	s.mu.Lock()
	applied := clampZoom(zoom)
	changed := applied != s.zoom
	s.zoom = applied
	if changed && s.doc != nil {
		s.rebuildLocked()
	}
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if changed {
		s.emit(notify, surface)
	}
	return applied
}

// ZoomIn raises zoom by one step.
func (s *Session) ZoomIn() int {
	return s.SetZoom(s.Zoom() + ZoomStep)
}

// ZoomOut lowers zoom by one step.
func (s *Session) ZoomOut() int {
	return s.SetZoom(s.Zoom() - ZoomStep)
}

// FitToWidth picks the zoom at which the current page fills availableWidth pixels.
// Without a known page width it falls back to DefaultZoom.
func (s *Session) FitToWidth(availableWidth float64) int {
	s.mu.Lock()
	width := s.pageSize.Width
	s.mu.Unlock()

	if width <= 0 || availableWidth <= 0 {
		return s.SetZoom(DefaultZoom)
	}
	return s.SetZoom(int(math.Floor(availableWidth / width * 100)))
}

func clampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// SetPage shows page. Out-of-range pages are rejected and nothing changes.
// A stroke still being drawn is committed to the page it was started on.
func (s *Session) SetPage(page int) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if page < 1 || page > s.totalPages {
		total := s.totalPages
		s.mu.Unlock()
		return fmt.Errorf("%w: %d not in [1,%d]", ErrPageOutOfRange, page, total)
	}
	if page == s.page {
		s.mu.Unlock()
		return nil
	}

	size, err := s.doc.PageSize(page)
	if err != nil {
		s.mu.Unlock()
		return apperrors.NewRenderError(page, err)
	}

	s.commitPendingLocked()
	s.page = page
	s.pageSize = size
	s.rebuildLocked()
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	s.emit(notify, surface)
	return nil
}

// NextPage moves forward one page.
func (s *Session) NextPage() error {
	return s.SetPage(s.Page() + 1)
}

// PrevPage moves back one page.
func (s *Session) PrevPage() error {
	return s.SetPage(s.Page() - 1)
}

// UpdateBlur merges a partial blur settings update.
func (s *Session) UpdateBlur(p state.BlurPatch) error {
	return s.updateSettings(func(ts state.ToolSettings) (state.ToolSettings, error) { return ts.WithBlur(p) })
}

// UpdateText merges a partial text settings update.
func (s *Session) UpdateText(p state.TextPatch) error {
	return s.updateSettings(func(ts state.ToolSettings) (state.ToolSettings, error) { return ts.WithText(p) })
}

// UpdateErase merges a partial erase settings update.
func (s *Session) UpdateErase(p state.ErasePatch) error {
	return s.updateSettings(func(ts state.ToolSettings) (state.ToolSettings, error) { return ts.WithErase(p) })
}

func (s *Session) updateSettings(apply func(state.ToolSettings) (state.ToolSettings, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := apply(s.settings)
	if err != nil {
		return err
	}
	s.settings = next
	return nil
}

// ClearPage removes every operation recorded on the current page.
func (s *Session) ClearPage() {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return
	}
	cleared := s.edits.Clear(s.page)
	if cleared {
		s.rebuildLocked()
	}
	page := s.page
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if cleared {
		s.logger.Info("page edits cleared", zap.Int("page", page))
		s.emit(notify, surface)
	}
}

// Operations returns a copy of the operations stored for page.
func (s *Session) Operations(page int) []state.EditOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits.Operations(page)
}

// EditedPages returns the pages that have operations, ascending.
func (s *Session) EditedPages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits.Pages()
}

// RenderCurrentPage rasterizes the current page at the current zoom for display.
// A failure affects only this page; the session stays usable.
func (s *Session) RenderCurrentPage(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	doc, page, zoom := s.acquireLocked(), s.page, s.zoom
	s.mu.Unlock()

	if doc == nil {
		return nil, ErrNoDocument
	}
	defer doc.readers.Done()
	img, err := doc.RenderPage(ctx, page, float64(zoom)/100)
	if err != nil {
		s.logger.Warn("page render failed", zap.Int("page", page), zap.Error(err))
		return nil, apperrors.NewRenderError(page, err)
	}
	return img, nil
}

// Overlay returns the overlay surface for the current page, at reference scale.
func (s *Session) Overlay() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Snapshot describes the session for the UI.
type Snapshot struct {
	HasDocument  bool
	FileName     string
	Tool         state.Tool
	Page         int
	TotalPages   int
	Zoom         int
	PageSize     geometry.Size
	Settings     state.ToolSettings
	Exporting    bool
	EditedPages  int
	Operations   int
	CaptureState state.CaptureState
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		HasDocument:  s.doc != nil,
		FileName:     s.fileName,
		Tool:         s.tool,
		Page:         s.page,
		TotalPages:   s.totalPages,
		Zoom:         s.zoom,
		PageSize:     s.pageSize,
		Settings:     s.settings,
		Exporting:    s.exporting,
		EditedPages:  s.edits.Len(),
		Operations:   s.edits.OperationCount(),
		CaptureState: s.capture.State(),
	}
}

// Tool returns the active tool.
func (s *Session) Tool() state.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Page returns the current page, 0 when no document is loaded.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Zoom returns the zoom percentage.
func (s *Session) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Settings returns a copy of the current tool settings.
func (s *Session) Settings() state.ToolSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// IsExporting reports whether an export is in flight.
func (s *Session) IsExporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

// rebuildLocked replays the current page's operations onto fresh surfaces sized to the page.
func (s *Session) rebuildLocked() {
	w := int(math.Ceil(s.pageSize.Width))
	h := int(math.Ceil(s.pageSize.Height))
	if s.committed == nil || s.committed.Bounds().Dx() != w || s.committed.Bounds().Dy() != h {
		s.committed = render.NewSurface(w, h)
		s.surface = render.NewSurface(w, h)
	}

	if err := s.overlay.Repaint(s.committed, s.edits.Operations(s.page), nil); err != nil {
		s.logger.Error("overlay replay failed", zap.Int("page", s.page), zap.Error(err))
	}
	s.showPendingLocked()
}

// showPendingLocked copies the committed layer to the visible surface and draws the stroke in progress.
func (s *Session) showPendingLocked() {
	copy(s.surface.Pix, s.committed.Pix)
	if pending, ok := s.capture.Pending(); ok && s.capture.State() == state.Capturing {
		if err := s.overlay.Draw(s.surface, pending); err != nil {
			s.logger.Error("drawing pending stroke", zap.Error(err))
		}
	}
}

func (s *Session) emit(fn func(*image.RGBA), surface *image.RGBA) {
	if fn != nil && surface != nil {
		fn(surface)
	}
}
