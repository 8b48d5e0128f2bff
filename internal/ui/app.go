// Package ui is the fyne desktop front-end of the editor.
package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"PDFMarkup/internal/config"
	"PDFMarkup/internal/editor"
	"PDFMarkup/internal/state"
	apperrors "PDFMarkup/pkg/errors"
)

const appID = "io.pdfmarkup.editor"

// App wires the session to the window's widgets. All methods run on the fyne main goroutine.
type App struct {
	cfg     *config.Config
	session *editor.Session
	logger  *zap.Logger

	fyneApp  fyne.App
	window   fyne.Window
	view     *PageView
	toolbar  *toolbar
	settings *settingsPanel
	nav      *navBar
	status   *widget.Label
}

// RunApp opens the main window and blocks until it is closed.
func RunApp(cfg *config.Config, session *editor.Session, logger *zap.Logger) {
	a := newApp(cfg, session, logger)
	a.window.ShowAndRun()
}

func newApp(cfg *config.Config, session *editor.Session, logger *zap.Logger) *App {
	a := &App{
		cfg:     cfg,
		session: session,
		logger:  logger,
		fyneApp: app.NewWithID(appID),
		status:  widget.NewLabel("Open a PDF to start editing"),
	}
	a.window = a.fyneApp.NewWindow("PDF Markup")
	a.window.Resize(fyne.NewSize(float32(cfg.WindowWidth), float32(cfg.WindowHeight)))

	a.view = NewPageView(session, logger)
	a.view.OnTextRequested = a.promptText
	a.view.OnEdited = a.refreshStatus
	a.view.OnRenderFailed = a.showError

	a.settings = newSettingsPanel(a)
	a.nav = newNavBar(a)
	a.toolbar = newToolbar(a)

	bottom := container.NewVBox(a.nav.content, a.status)
	content := container.NewBorder(a.toolbar.content, bottom, nil, a.settings.content, a.view.Object())
	a.window.SetContent(content)
	a.window.SetOnDropped(a.onDropped)
	a.window.Canvas().SetOnTypedKey(a.onTypedKey)
	a.window.SetCloseIntercept(func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing document", zap.Error(err))
		}
		a.window.Close()
	})

	a.settings.show(state.ToolSelect)
	a.refresh()
	return a
}

func (a *App) setTool(tool state.Tool) {
	a.session.SetTool(tool)
	a.settings.show(tool)
	a.refreshStatus()
}

func (a *App) setPage(page int) {
	if err := a.session.SetPage(page); err != nil {
		a.logger.Debug("page change rejected", zap.Int("page", page), zap.Error(err))
		a.refreshNav()
		return
	}
	a.view.ScrollToTop()
	a.view.Reload()
	a.refresh()
}

func (a *App) nextPage() { a.setPage(a.session.Page() + 1) }

func (a *App) prevPage() { a.setPage(a.session.Page() - 1) }

func (a *App) zoomIn() {
	a.session.ZoomIn()
	a.afterZoom()
}

func (a *App) zoomOut() {
	a.session.ZoomOut()
	a.afterZoom()
}

func (a *App) fitToWidth() {
	a.view.FitToWidth()
	a.afterZoom()
}

func (a *App) afterZoom() {
	a.view.Reload()
	a.refresh()
}

func (a *App) clearPage() {
	snap := a.session.Snapshot()
	if !snap.HasDocument {
		return
	}
	msg := fmt.Sprintf("Remove every edit on page %d?", snap.Page)
	dialog.ShowConfirm("Clear page", msg, func(ok bool) {
		if !ok {
			return
		}
		a.session.ClearPage()
		a.refreshStatus()
	}, a.window)
}

// promptText asks for the text of a stamp. resolve is always called exactly once.
func (a *App) promptText(resolve func(state.TextResult)) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Enter text")
	items := []*widget.FormItem{widget.NewFormItem("Text", entry)}

	form := dialog.NewForm("Add text", "Add", "Cancel", items, func(ok bool) {
		if !ok {
			resolve(state.Cancelled())
			return
		}
		resolve(state.Entered(entry.Text))
	}, a.window)
	form.Resize(fyne.NewSize(360, 180))
	form.Show()
	a.window.Canvas().Focus(entry)
}

func (a *App) onTypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyLeft, fyne.KeyPageUp:
		a.prevPage()
	case fyne.KeyRight, fyne.KeyPageDown:
		a.nextPage()
	case fyne.KeyEscape:
		a.setTool(state.ToolSelect)
		a.toolbar.selectTool(state.ToolSelect)
	}
}

func (a *App) showError(err error) {
	title, desc := apperrors.UserMessage(err)
	dialog.ShowInformation(title, desc, a.window)
}

func (a *App) refresh() {
	a.refreshNav()
	a.refreshStatus()
}

func (a *App) refreshNav() {
	snap := a.session.Snapshot()
	a.nav.update(snap)
	a.toolbar.update(snap)
}

func (a *App) refreshStatus() {
	snap := a.session.Snapshot()
	if !snap.HasDocument {
		a.status.SetText("Open a PDF to start editing")
		return
	}
	text := fmt.Sprintf("%s | tool: %s | %d edits on %d pages", snap.FileName, snap.Tool, snap.Operations, snap.EditedPages)
	if snap.Exporting {
		text += " | exporting..."
	}
	a.status.SetText(text)
}
