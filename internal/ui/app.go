package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"LocalBoard/internal/replica"
	"LocalBoard/internal/state"
)

// Options describes the board a window shows.
type Options struct {
	Replica *replica.Replica
	// ShareLink is shown to hosts so they can invite others. Empty for clients.
	ShareLink string
	Logger    *slog.Logger
	// Disconnected delivers the reason the connection to the board ended, nil for a
	// normal close. It may be nil.
	Disconnected <-chan error
	// OnClose runs after the window closes.
	OnClose func()
}

func disconnectMessage(err error) string {
	if err == nil {
		return "Disconnected from host"
	}
	return fmt.Sprintf("Disconnected from host: %v", err)
}

// watchConnection shows the end of the connection in the status line.
func watchConnection(lost <-chan error, status func(string)) {
	err, ok := <-lost
	if !ok {
		return
	}
	msg := disconnectMessage(err)
	fyne.Do(func() { status(msg) })
}

// RunApp opens the board window and blocks until it is closed.
func RunApp(opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := app.NewWithID("io.localboard")
	w := a.NewWindow("LocalBoard")
	w.Resize(fyne.NewSize(1024, 768))

	board := NewBoardWidget(opts.Replica)

	status := widget.NewLabel("Connecting...")
	setStatus := func(s string) { status.SetText(s) }

	var users []state.User
	list := widget.NewList(
		func() int { return len(users) },
		func() fyne.CanvasObject { return widget.NewLabel("User 0000") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			u := users[i]
			label := u.Label()
			if u.ID == opts.Replica.Self().ID {
				label += " (you)"
			}
			o.(*widget.Label).SetText(label)
		},
	)
	board.OnUsersChanged = func(us []state.User) {
		users = us
		list.Refresh()
		if opts.Replica.Ready() {
			setStatus(fmt.Sprintf("Connected as %s, %d on board", opts.Replica.Self().Label(), len(us)))
		}
	}

	toolbar := NewToolbar(board, opts.Replica, func() {
		exportPDF(w, opts.Replica, setStatus, logger)
	})

	var top fyne.CanvasObject = toolbar
	if opts.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(opts.ShareLink)
		copyLink := widget.NewButton("Copy link", func() {
			w.Clipboard().SetContent(opts.ShareLink)
			setStatus("Link copied")
		})
		top = container.NewVBox(toolbar, container.NewBorder(nil, nil, widget.NewLabel("Share:"), copyLink, link))
	}

	side := container.NewBorder(widget.NewLabelWithStyle("On board", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), nil, nil, nil, list)
	split := container.NewHSplit(board, side)
	split.SetOffset(0.82)

	w.SetContent(container.NewBorder(top, status, nil, nil, split))

	if opts.Disconnected != nil {
		go watchConnection(opts.Disconnected, setStatus)
	}

	a.Lifecycle().SetOnStarted(func() {
		opts.Replica.SetRenderer(board)
	})
	w.SetOnClosed(func() {
		opts.Replica.SetRenderer(nil)
		if opts.OnClose != nil {
			opts.OnClose()
		}
	})
	w.ShowAndRun()
}
