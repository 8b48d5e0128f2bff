package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PDFMarkup/internal/config"
	"PDFMarkup/internal/document/documenttest"
	"PDFMarkup/internal/export"
	"PDFMarkup/internal/geometry"
	"PDFMarkup/internal/state"
	apperrors "PDFMarkup/pkg/errors"
)

var pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

var letter = geometry.Size{Width: 200, Height: 100}

func newSession(t *testing.T, pages int, opts ...Option) (*Session, *documenttest.Rasterizer) {
	t.Helper()
	raster := documenttest.NewRasterizer(pages, letter)
	s := NewSession(config.Default(), raster, nil, opts...)
	require.NoError(t, s.Init())
	return s, raster
}

func loaded(t *testing.T, pages int, opts ...Option) (*Session, *documenttest.Rasterizer) {
	t.Helper()
	s, raster := newSession(t, pages, opts...)
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	return s, raster
}

func stroke(s *Session, points ...geometry.Point) {
	s.Begin(points[0])
	for _, p := range points[1:] {
		s.Continue(p)
	}
	s.End()
}

func TestInit_RunsOnce(t *testing.T) {
	s, raster := newSession(t, 1)
	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
	assert.Equal(t, 1, raster.Inits())
}

func TestLoadDocument_RejectsBadInput(t *testing.T) {
	s, _ := newSession(t, 1)

	err := s.LoadDocument("notes.txt", []byte("hello world"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))

	err = s.LoadDocument("empty.pdf", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))

	assert.False(t, s.Snapshot().HasDocument)
}

func TestLoadDocument_TooLarge(t *testing.T) {
	raster := documenttest.NewRasterizer(1, letter)
	cfg := config.Default()
	cfg.MaxUploadBytes = 16
	s := NewSession(cfg, raster, nil)
	require.NoError(t, s.Init())

	err := s.LoadDocument("big.pdf", pdfBytes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File too large")
}

func TestLoadDocument_FailureKeepsPreviousDocument(t *testing.T) {
	s, raster := loaded(t, 3)
	require.NoError(t, s.SetPage(2))

	raster.LoadErr = errors.New("xref table broken")
	err := s.LoadDocument("other.pdf", pdfBytes)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLoadFailure))

	snap := s.Snapshot()
	assert.Equal(t, "doc.pdf", snap.FileName)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, 3, snap.TotalPages)
}

func TestLoadDocument_ResetsEdits(t *testing.T) {
	s, _ := loaded(t, 10)
	s.SetTool(state.ToolErase)
	for page := 1; page <= 10; page++ {
		require.NoError(t, s.SetPage(page))
		stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 20, Y: 20})
	}
	require.Len(t, s.EditedPages(), 10)
	s.SetZoom(175)

	require.NoError(t, s.LoadDocument("next.pdf", pdfBytes))
	snap := s.Snapshot()
	assert.Empty(t, s.EditedPages())
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, DefaultZoom, snap.Zoom)
	assert.Equal(t, 10, snap.TotalPages)
	assert.Equal(t, "next.pdf", snap.FileName)
	assert.Equal(t, state.Idle, snap.CaptureState)
}

func TestLoadDocument_SizesOverlayToPage(t *testing.T) {
	s, _ := loaded(t, 1)
	assert.Equal(t, image.Rect(0, 0, 200, 100), s.Overlay().Bounds())
}

func TestSetZoom_Clamps(t *testing.T) {
	s, _ := loaded(t, 1)
	assert.Equal(t, 50, s.SetZoom(30))
	assert.Equal(t, 200, s.SetZoom(500))
	assert.Equal(t, 125, s.SetZoom(125))
	assert.Equal(t, 125, s.Zoom())
}

func TestZoomSteps(t *testing.T) {
	s, _ := loaded(t, 1)
	assert.Equal(t, 125, s.ZoomIn())
	assert.Equal(t, 100, s.ZoomOut())

	s.SetZoom(MaxZoom)
	assert.Equal(t, MaxZoom, s.ZoomIn())
	s.SetZoom(MinZoom)
	assert.Equal(t, MinZoom, s.ZoomOut())
}

func TestFitToWidth(t *testing.T) {
	s, _ := newSession(t, 1)
	assert.Equal(t, DefaultZoom, s.FitToWidth(300))

	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	assert.Equal(t, 150, s.FitToWidth(300))
	assert.Equal(t, MaxZoom, s.FitToWidth(1000))
	assert.Equal(t, MinZoom, s.FitToWidth(10))
	assert.Equal(t, DefaultZoom, s.FitToWidth(0))
}

func TestSetPage_Bounds(t *testing.T) {
	s, _ := loaded(t, 5)

	for _, page := range []int{0, 6, -1} {
		err := s.SetPage(page)
		assert.ErrorIs(t, err, ErrPageOutOfRange, "page %d", page)
		assert.Equal(t, 1, s.Page())
	}

	require.NoError(t, s.SetPage(5))
	assert.Equal(t, 5, s.Page())
	assert.ErrorIs(t, s.NextPage(), ErrPageOutOfRange)
	require.NoError(t, s.PrevPage())
	assert.Equal(t, 4, s.Page())
}

func TestSetPage_NoDocument(t *testing.T) {
	s, _ := newSession(t, 1)
	assert.ErrorIs(t, s.SetPage(1), ErrNoDocument)
}

func TestSetPage_CommitsStrokeToItsOwnPage(t *testing.T) {
	s, _ := loaded(t, 2)
	s.SetTool(state.ToolBlur)
	s.Begin(geometry.Point{X: 5, Y: 5})
	s.Continue(geometry.Point{X: 15, Y: 5})

	require.NoError(t, s.SetPage(2))
	assert.Len(t, s.Operations(1), 1)
	assert.Empty(t, s.Operations(2))
	assert.Equal(t, state.Idle, s.Snapshot().CaptureState)
}

func TestGestures_IgnoredWithoutDocumentOrTool(t *testing.T) {
	s, _ := newSession(t, 1)
	s.SetTool(state.ToolBlur)
	assert.Equal(t, state.BeginIgnored, s.Begin(geometry.Point{X: 1, Y: 1}))

	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	s.SetTool(state.ToolSelect)
	assert.Equal(t, state.BeginIgnored, s.Begin(geometry.Point{X: 1, Y: 1}))
	s.End()
	assert.Empty(t, s.Operations(1))
}

func TestGestures_BlurStroke(t *testing.T) {
	s, _ := loaded(t, 1)
	s.SetTool(state.ToolBlur)
	stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 20, Y: 20}, geometry.Point{X: 30, Y: 30})

	ops := s.Operations(1)
	require.Len(t, ops, 1)
	assert.Equal(t, state.ToolBlur, ops[0].Type)
	assert.Len(t, ops[0].Points, 3)
	assert.Equal(t, state.BlurProps{Intensity: 5, BrushSize: 20}, ops[0].Properties)

	// The multiply tint darkens the overlay under the stroke.
	_, _, _, a := s.Overlay().At(20, 20).RGBA()
	assert.NotZero(t, a)
}

func TestGestures_SettingsChangeDoesNotTouchCommittedOps(t *testing.T) {
	s, _ := loaded(t, 1)
	s.SetTool(state.ToolBlur)
	stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 20, Y: 20})

	require.NoError(t, s.UpdateBlur(state.BlurPatch{Intensity: state.Int(9)}))
	assert.Equal(t, 9, s.Settings().Blur.Intensity)
	assert.Equal(t, state.BlurProps{Intensity: 5, BrushSize: 20}, s.Operations(1)[0].Properties)
}

func TestUpdateSettings_InvalidLeavesSettings(t *testing.T) {
	s, _ := newSession(t, 1)
	err := s.UpdateErase(state.ErasePatch{Size: state.Int(500)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
	assert.Equal(t, 15, s.Settings().Erase.Size)

	require.NoError(t, s.UpdateText(state.TextPatch{Color: state.String("#ff0000")}))
	assert.Equal(t, "#ff0000", s.Settings().Text.Color)
}

func TestGestures_TextPrompt(t *testing.T) {
	s, _ := loaded(t, 1)
	s.SetTool(state.ToolText)

	assert.Equal(t, state.BeginAwaitingText, s.Begin(geometry.Point{X: 40, Y: 40}))
	assert.Equal(t, state.AwaitingText, s.Snapshot().CaptureState)
	assert.Equal(t, state.BeginIgnored, s.Begin(geometry.Point{X: 60, Y: 60}))

	assert.False(t, s.ResolveText(state.Cancelled()))
	assert.Empty(t, s.Operations(1))

	s.Begin(geometry.Point{X: 40, Y: 40})
	assert.False(t, s.ResolveText(state.Entered("")))
	assert.Empty(t, s.Operations(1))

	s.Begin(geometry.Point{X: 40, Y: 40})
	assert.True(t, s.ResolveText(state.Entered("Approved")))
	ops := s.Operations(1)
	require.Len(t, ops, 1)
	assert.Equal(t, []state.Point{{X: 40, Y: 40}}, ops[0].Points)
	assert.Equal(t, "Approved", ops[0].Properties.(state.TextProps).Text)
}

func TestClearPage(t *testing.T) {
	s, _ := loaded(t, 2)
	s.SetTool(state.ToolErase)
	stroke(s, geometry.Point{X: 10, Y: 10})
	require.NoError(t, s.SetPage(2))
	stroke(s, geometry.Point{X: 10, Y: 10})

	s.ClearPage()
	assert.Empty(t, s.Operations(2))
	assert.Len(t, s.Operations(1), 1)
}

func TestOverlayChangedCallback(t *testing.T) {
	s, _ := loaded(t, 2)
	var calls int
	var last *image.RGBA
	s.OnOverlayChanged(func(img *image.RGBA) {
		calls++
		last = img
	})

	s.SetTool(state.ToolBlur)
	stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 20, Y: 20})
	assert.Equal(t, 3, calls)
	assert.Same(t, s.Overlay(), last)

	require.NoError(t, s.SetPage(2))
	assert.Equal(t, 4, calls)
}

func TestOverlay_MatchesFullReplayAfterPageSwitch(t *testing.T) {
	s, _ := loaded(t, 2)
	s.SetTool(state.ToolBlur)
	stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 60, Y: 40})
	s.SetTool(state.ToolErase)
	stroke(s, geometry.Point{X: 30, Y: 20}, geometry.Point{X: 40, Y: 30})

	incremental := append([]byte(nil), s.Overlay().Pix...)
	require.NoError(t, s.SetPage(2))
	require.NoError(t, s.SetPage(1))
	assert.Equal(t, incremental, s.Overlay().Pix)
}

func TestMapPointer(t *testing.T) {
	s, _ := loaded(t, 1)
	s.SetZoom(200)
	got := s.MapPointer(geometry.Point{X: 110, Y: 60}, geometry.Box{X: 10, Y: 10, Width: 400, Height: 200},
		geometry.Size{Width: 400, Height: 200})
	assert.Equal(t, geometry.Point{X: 50, Y: 25}, got)
}

func TestRenderCurrentPage(t *testing.T) {
	s, raster := loaded(t, 3)
	s.SetZoom(150)

	img, err := s.RenderCurrentPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 150), img.Bounds())
	assert.Equal(t, 1.5, raster.LastScale())

	raster.PageErrs[2] = errors.New("bad page")
	require.NoError(t, s.SetPage(2))
	_, err = s.RenderCurrentPage(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRenderError))

	require.NoError(t, s.SetPage(3))
	_, err = s.RenderCurrentPage(context.Background())
	assert.NoError(t, err)
}

// pageRecorder keeps the decoded page images handed to the builder.
type pageRecorder struct {
	images map[export.ImageRef]image.Image
	pages  []image.Image
}

func (b *pageRecorder) AddPage(geometry.Size) {}

func (b *pageRecorder) EmbedImage(name string, png []byte) (export.ImageRef, error) {
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return "", err
	}
	b.images[export.ImageRef(name)] = img
	return export.ImageRef(name), nil
}

func (b *pageRecorder) DrawImage(ref export.ImageRef, _ geometry.Box) {
	b.pages = append(b.pages, b.images[ref])
}

func (b *pageRecorder) Save(w io.Writer) error {
	_, err := fmt.Fprint(w, "%PDF-recorded")
	return err
}

func isWhite(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestExport_FullScenario(t *testing.T) {
	recorder := &pageRecorder{images: map[export.ImageRef]image.Image{}}
	s, raster := loaded(t, 2, WithBuilder(func() export.Builder { return recorder }))

	s.SetTool(state.ToolBlur)
	stroke(s, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 20, Y: 20}, geometry.Point{X: 30, Y: 30})

	require.NoError(t, s.SetPage(2))
	s.SetTool(state.ToolText)
	require.NoError(t, s.UpdateText(state.TextPatch{FontSize: state.Int(14)}))
	require.Equal(t, state.BeginAwaitingText, s.Begin(geometry.Point{X: 50, Y: 50}))
	require.True(t, s.ResolveText(state.Entered("Confidential")))

	raster.Reset()
	result, err := s.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "edited_doc.pdf", result.Name)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, "%PDF-recorded", string(result.Data))
	assert.Equal(t, []int{1, 2}, raster.Rendered())
	assert.Equal(t, 2.0, raster.LastScale())
	assert.False(t, s.IsExporting())

	require.Len(t, recorder.pages, 2)
	first, second := recorder.pages[0], recorder.pages[1]
	require.Equal(t, image.Rect(0, 0, 400, 200), first.Bounds())
	require.Equal(t, image.Rect(0, 0, 400, 200), second.Bounds())

	// Page 1: a light wash along the stroke, nothing dark, untouched away from it.
	r, _, _, _ := first.At(40, 40).RGBA()
	assert.Less(t, r>>8, uint32(250), "stroke centre is washed")
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if x > 120 || y > 120 {
				require.True(t, isWhite(first, x, y), "page 1 marked away from the stroke at (%d,%d)", x, y)
			}
			r, _, _, _ := first.At(x, y).RGBA()
			require.GreaterOrEqual(t, r>>8, uint32(200), "page 1 has a dark mark at (%d,%d)", x, y)
		}
	}

	// Page 2: "Confidential" hangs from y=50 (100px at scale 2) and is the only mark.
	firstInkRow, dark := -1, 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if isWhite(second, x, y) {
				continue
			}
			require.GreaterOrEqual(t, x, 98, "page 2 marked left of the text at (%d,%d)", x, y)
			require.True(t, y >= 98 && y < 150, "page 2 marked outside the text line at (%d,%d)", x, y)
			if firstInkRow < 0 {
				firstInkRow = y
			}
			if r, _, _, _ := second.At(x, y).RGBA(); r>>8 < 128 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
	assert.GreaterOrEqual(t, firstInkRow, 98)
	assert.Less(t, firstInkRow, 112, "text is top-aligned at its anchor")
}

func TestExport_NoDocument(t *testing.T) {
	s, _ := newSession(t, 1)
	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestExport_FailureKeepsEdits(t *testing.T) {
	s, raster := loaded(t, 3)
	s.SetTool(state.ToolErase)
	stroke(s, geometry.Point{X: 10, Y: 10})

	raster.PageErrs[2] = errors.New("boom")
	result, err := s.Export(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExportFailure))
	assert.Nil(t, result.Data)
	assert.False(t, s.IsExporting())
	assert.Len(t, s.Operations(1), 1)

	delete(raster.PageErrs, 2)
	_, err = s.Export(context.Background())
	assert.NoError(t, err)
}

// gatedBuilder blocks Save until released so a test can observe an export in flight.
type gatedBuilder struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *gatedBuilder) AddPage(geometry.Size) {
	b.once.Do(func() { close(b.started) })
}

func (b *gatedBuilder) EmbedImage(name string, _ []byte) (export.ImageRef, error) {
	return export.ImageRef(name), nil
}

func (b *gatedBuilder) DrawImage(export.ImageRef, geometry.Box) {}

func (b *gatedBuilder) Save(w io.Writer) error {
	<-b.release
	_, err := fmt.Fprint(w, "%PDF-gated")
	return err
}

func TestExport_OneAtATime(t *testing.T) {
	gate := &gatedBuilder{started: make(chan struct{}), release: make(chan struct{})}
	s, _ := loaded(t, 1, WithBuilder(func() export.Builder { return gate }))
	s.SetTool(state.ToolErase)
	stroke(s, geometry.Point{X: 10, Y: 10})

	done := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background())
		done <- err
	}()
	<-gate.started
	assert.True(t, s.IsExporting())

	_, err := s.Export(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = s.LoadDocument("other.pdf", pdfBytes)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = s.Close()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.True(t, s.Snapshot().HasDocument)

	// Edits made during the export are kept but not part of it.
	stroke(s, geometry.Point{X: 30, Y: 30})

	close(gate.release)
	require.NoError(t, <-done)
	assert.False(t, s.IsExporting())
	assert.Len(t, s.Operations(1), 2)
}

func TestLoadDocument_ClosesPreviousAfterRenderReturns(t *testing.T) {
	s, raster := loaded(t, 1)

	rendering := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	raster.OnRender = func(int) {
		once.Do(func() {
			close(rendering)
			<-release
		})
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.RenderCurrentPage(context.Background())
		done <- err
	}()
	<-rendering

	require.NoError(t, s.LoadDocument("b.pdf", pdfBytes))
	docs := raster.Loaded()
	require.Len(t, docs, 2)
	assert.False(t, docs[0].Closed(), "previous document closed under a running render")

	close(release)
	require.NoError(t, <-done)
	assert.Eventually(t, docs[0].Closed, time.Second, 5*time.Millisecond)
	assert.False(t, docs[0].ClosedWhileRendering())
	assert.False(t, docs[1].Closed())
	assert.Equal(t, "b.pdf", s.Snapshot().FileName)
}

func TestClose_WaitsForRender(t *testing.T) {
	s, raster := loaded(t, 1)

	rendering := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	raster.OnRender = func(int) {
		once.Do(func() {
			close(rendering)
			<-release
		})
	}

	go s.RenderCurrentPage(context.Background())
	<-rendering

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()

	doc := raster.Loaded()[0]
	assert.Never(t, doc.Closed, 50*time.Millisecond, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-closed)
	assert.True(t, doc.Closed())
	assert.False(t, doc.ClosedWhileRendering())
	assert.False(t, s.Snapshot().HasDocument)
}

func TestGestures_BeginOutsidePageIgnored(t *testing.T) {
	s, _ := loaded(t, 1)
	s.SetTool(state.ToolErase)

	assert.Equal(t, state.BeginIgnored, s.Begin(geometry.Point{X: 250, Y: 10}))
	assert.Equal(t, state.BeginIgnored, s.Begin(geometry.Point{X: 10, Y: -1}))
	assert.Equal(t, state.BeginCapturing, s.Begin(geometry.Point{X: 200, Y: 100}))
	s.Continue(geometry.Point{X: 260, Y: 120})
	s.End()

	ops := s.Operations(1)
	require.Len(t, ops, 1)
	assert.Len(t, ops[0].Points, 2)
}
