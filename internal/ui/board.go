package ui

import (
	"context"
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"go.uber.org/zap"

	"PDFMarkup/internal/editor"
	"PDFMarkup/internal/state"
)

// PageView scrolls the current page and keeps its raster in step with the session's page and zoom.
type PageView struct {
	scroll  *container.Scroll
	session *editor.Session
	logger  *zap.Logger
	page    *PageWidget

	mu     sync.Mutex
	cancel context.CancelFunc

	OnTextRequested func(resolve func(state.TextResult))
	OnEdited        func()
	OnRenderFailed  func(error)
}

func NewPageView(session *editor.Session, logger *zap.Logger) *PageView {
	v := &PageView{
		session: session,
		logger:  logger,
		page:    NewPageWidget(session),
	}
	v.page.OnTextRequested = func(resolve func(state.TextResult)) {
		if v.OnTextRequested != nil {
			v.OnTextRequested(resolve)
			return
		}
		resolve(state.Cancelled())
	}
	v.page.OnEdited = func() {
		if v.OnEdited != nil {
			v.OnEdited()
		}
	}
	v.scroll = container.NewScroll(container.NewCenter(v.page))

	session.OnOverlayChanged(func(img *image.RGBA) {
		fyne.Do(func() { v.page.SetOverlay(img) })
	})
	return v
}

// Reload resizes the page to the current zoom and rasterizes it in the background.
// A reload started before this one is cancelled.
func (v *PageView) Reload() {
	snap := v.session.Snapshot()
	if !snap.HasDocument {
		return
	}

	zoom := float32(snap.Zoom) / 100
	v.page.SetDisplaySize(fyne.NewSize(float32(snap.PageSize.Width)*zoom, float32(snap.PageSize.Height)*zoom))
	v.page.SetOverlay(v.session.Overlay())
	v.scroll.Refresh()

	ctx, cancel := context.WithCancel(context.Background())
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = cancel
	v.mu.Unlock()

	go func() {
		img, err := v.session.RenderCurrentPage(ctx)
		if ctx.Err() != nil {
			return
		}
		fyne.Do(func() {
			if err != nil {
				v.page.ShowMessage(fmt.Sprintf("Page %d could not be displayed", snap.Page))
				if v.OnRenderFailed != nil {
					v.OnRenderFailed(err)
				}
				return
			}
			v.page.SetPageImage(img)
		})
	}()
}

// FitToWidth zooms so the page fills the visible width.
func (v *PageView) FitToWidth() {
	available := v.scroll.Size().Width - 2*theme.Padding()
	zoom := v.session.FitToWidth(float64(available))
	v.logger.Debug("fit to width", zap.Float32("available", available), zap.Int("zoom", zoom))
}

// ScrollToTop shows the top of the page.
func (v *PageView) ScrollToTop() {
	v.scroll.ScrollToTop()
}

// Object is the canvas object to place in a layout.
func (v *PageView) Object() fyne.CanvasObject {
	return v.scroll
}
