package ui

import (
	"context"
	"fmt"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"go.uber.org/zap"
)

var pdfFilter = storage.NewExtensionFileFilter([]string{".pdf", ".PDF"})

func (a *App) openDocument() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if reader == nil {
			return
		}
		a.loadFrom(reader)
	}, a.window)
	open.SetFilter(pdfFilter)
	open.Show()
}

func (a *App) onDropped(_ fyne.Position, uris []fyne.URI) {
	if len(uris) == 0 {
		return
	}
	reader, err := storage.Reader(uris[0])
	if err != nil {
		a.showError(err)
		return
	}
	a.loadFrom(reader)
}

// loadFrom reads and opens a document off the main goroutine.
func (a *App) loadFrom(reader fyne.URIReadCloser) {
	name := reader.URI().Name()
	a.status.SetText(fmt.Sprintf("Loading %s...", name))

	go func() {
		defer func() {
			if err := reader.Close(); err != nil {
				a.logger.Warn("closing reader", zap.Error(err))
			}
		}()

		// One byte over the limit is enough for the size check to reject it.
		data, err := io.ReadAll(io.LimitReader(reader, a.cfg.MaxUploadBytes+1))
		if err == nil {
			err = a.session.LoadDocument(name, data)
		}

		fyne.Do(func() {
			if err != nil {
				a.logger.Warn("open failed", zap.String("file", name), zap.Error(err))
				a.showError(err)
				a.refresh()
				return
			}
			a.window.SetTitle(fmt.Sprintf("PDF Markup - %s", name))
			a.view.FitToWidth()
			a.view.ScrollToTop()
			a.view.Reload()
			a.refresh()
		})
	}()
}

// exportDocument burns the edits in on a background goroutine, then asks where to save the result.
func (a *App) exportDocument() {
	a.toolbar.export.Disable()
	a.status.SetText("Exporting...")

	go func() {
		result, err := a.session.Export(context.Background())
		fyne.Do(func() {
			a.refresh()
			if err != nil {
				a.showError(err)
				return
			}

			save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
				if err != nil {
					a.showError(err)
					return
				}
				if writer == nil {
					return
				}
				defer writer.Close()

				if _, err := writer.Write(result.Data); err != nil {
					a.logger.Error("writing export", zap.String("uri", writer.URI().String()), zap.Error(err))
					dialog.ShowError(err, a.window)
					return
				}
				a.logger.Info("export saved", zap.String("uri", writer.URI().String()), zap.Int("pages", result.Pages))
				a.status.SetText(fmt.Sprintf("Saved %s (%d pages)", writer.URI().Name(), result.Pages))
			}, a.window)
			save.SetFileName(result.Name)
			save.SetFilter(pdfFilter)
			save.Show()
		})
	}()
}
