package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"PDFMarkup/internal/editor"
	"PDFMarkup/internal/geometry"
	"PDFMarkup/internal/state"
)

// PageWidget shows the rendered page with the edit overlay stacked on top,
// and turns pointer input into gestures on the session.
type PageWidget struct {
	widget.BaseWidget

	session *editor.Session
	page    *canvas.Image
	overlay *canvas.Image
	message *canvas.Text
	display fyne.Size

	// OnTextRequested must eventually call resolve, or the session stays waiting for text.
	OnTextRequested func(resolve func(state.TextResult))
	// OnEdited runs after a gesture may have stored an operation.
	OnEdited func()
}

var _ fyne.Widget = (*PageWidget)(nil)
var _ fyne.Draggable = (*PageWidget)(nil)
var _ desktop.Mouseable = (*PageWidget)(nil)
var _ desktop.Hoverable = (*PageWidget)(nil)

func NewPageWidget(session *editor.Session) *PageWidget {
	w := &PageWidget{
		session: session,
		page:    &canvas.Image{FillMode: canvas.ImageFillStretch, ScaleMode: canvas.ImageScaleSmooth},
		overlay: &canvas.Image{FillMode: canvas.ImageFillStretch, ScaleMode: canvas.ImageScaleSmooth},
		message: canvas.NewText("", theme.Color(theme.ColorNameError)),
	}
	w.message.Hide()
	w.ExtendBaseWidget(w)
	return w
}

// SetDisplaySize sets the on-screen size of the page.
func (w *PageWidget) SetDisplaySize(size fyne.Size) {
	w.display = size
	w.Refresh()
}

// SetPageImage shows a freshly rendered page.
func (w *PageWidget) SetPageImage(img image.Image) {
	w.message.Hide()
	w.page.Image = img
	w.page.Refresh()
}

// SetOverlay shows img as the edit layer.
func (w *PageWidget) SetOverlay(img image.Image) {
	w.overlay.Image = img
	w.overlay.Refresh()
}

// ShowMessage replaces the page image with text, e.g. after a render failure.
func (w *PageWidget) ShowMessage(text string) {
	w.page.Image = nil
	w.page.Refresh()
	w.message.Text = text
	w.message.Show()
	w.Refresh()
}

// toPage maps a widget-relative position into page reference coordinates.
func (w *PageWidget) toPage(pos fyne.Position) geometry.Point {
	size := w.Size()
	raw := geometry.Point{X: float64(pos.X), Y: float64(pos.Y)}
	box := geometry.Box{Width: float64(size.Width), Height: float64(size.Height)}
	return w.session.MapPointer(raw, box, geometry.Size{Width: float64(size.Width), Height: float64(size.Height)})
}

func (w *PageWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if w.session.Begin(w.toPage(e.Position)) == state.BeginAwaitingText {
		w.requestText()
	}
}

func (w *PageWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.finish()
	}
}

func (w *PageWidget) Dragged(e *fyne.DragEvent) {
	w.session.Continue(w.toPage(e.Position))
}

func (w *PageWidget) DragEnd() {
	w.finish()
}

func (w *PageWidget) MouseIn(*desktop.MouseEvent) {}

func (w *PageWidget) MouseMoved(e *desktop.MouseEvent) {
	w.session.Continue(w.toPage(e.Position))
}

// MouseOut ends the stroke the same way a release does.
func (w *PageWidget) MouseOut() {
	w.finish()
}

func (w *PageWidget) finish() {
	w.session.End()
	w.edited()
}

func (w *PageWidget) requestText() {
	resolve := func(r state.TextResult) {
		w.session.ResolveText(r)
		w.edited()
	}
	if w.OnTextRequested == nil {
		resolve(state.Cancelled())
		return
	}
	w.OnTextRequested(resolve)
}

func (w *PageWidget) edited() {
	if w.OnEdited != nil {
		w.OnEdited()
	}
}

func (w *PageWidget) MinSize() fyne.Size {
	return w.display
}

func (w *PageWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &pageWidgetRenderer{
		widget:     w,
		background: canvas.NewRectangle(color.White),
	}
	r.background.StrokeColor = color.Gray{Y: 200}
	r.background.StrokeWidth = 1
	return r
}

type pageWidgetRenderer struct {
	widget     *PageWidget
	background *canvas.Rectangle
}

func (r *pageWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.widget.page, r.widget.overlay, r.widget.message}
}

func (r *pageWidgetRenderer) Layout(size fyne.Size) {
	for _, obj := range []fyne.CanvasObject{r.background, r.widget.page, r.widget.overlay} {
		obj.Move(fyne.NewPos(0, 0))
		obj.Resize(size)
	}
	msg := r.widget.message.MinSize()
	r.widget.message.Resize(msg)
	r.widget.message.Move(fyne.NewPos((size.Width-msg.Width)/2, (size.Height-msg.Height)/2))
}

func (r *pageWidgetRenderer) MinSize() fyne.Size {
	return r.widget.display
}

func (r *pageWidgetRenderer) Refresh() {
	r.Layout(r.widget.Size())
	canvas.Refresh(r.widget)
}

func (r *pageWidgetRenderer) Destroy() {}
