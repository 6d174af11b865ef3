package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"LocalBoard/internal/export"
	"LocalBoard/internal/replica"
)

// exportPDF asks where to save and writes the replica's current history as a PDF.
func exportPDF(w fyne.Window, r *replica.Replica, status func(string), logger *slog.Logger) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if writer == nil {
			return
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("failed to close export", "err", err)
			}
		}()

		strokes := r.History()
		if err := export.WritePDF(writer, strokes); err != nil {
			logger.Error("pdf export failed", "uri", writer.URI().String(), "err", err)
			dialog.ShowError(err, w)
			return
		}
		status(fmt.Sprintf("Exported %d strokes to %s", len(strokes), writer.URI().Name()))
	}, w)
	save.SetFileName("localboard.pdf")
	save.Show()
}
