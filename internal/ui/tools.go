package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LocalBoard/internal/replica"
	"LocalBoard/internal/state"
)

var palette = []state.ColorValue{state.Black, "#ff0000", "#00a000", "#0000ff", "#ffd700", "#8b4513"}

type colorSwatch struct {
	widget.BaseWidget
	Color    state.ColorValue
	OnTapped func(state.ColorValue)
}

func newColorSwatch(c state.ColorValue, tapped func(state.ColorValue)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.NRGBA())
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar wires the drawing tools to board and the history actions to r.
// export may be nil.
func NewToolbar(board *BoardWidget, r *replica.Replica, export func()) fyne.CanvasObject {
	lastColor := state.Black
	lastWidth := defaultWidth

	slider := widget.NewSlider(1, 50)
	slider.SetValue(lastWidth)
	slider.OnChanged = func(v float64) {
		board.SetWidth(v)
	}

	pen := func() {
		board.SetColor(lastColor)
		if board.Width() >= eraserWidth {
			slider.SetValue(lastWidth)
		}
	}
	eraser := func() {
		lastWidth = board.Width()
		board.SetColor(state.White)
		slider.SetValue(eraserWidth)
	}

	actions := []widget.ToolbarItem{
		widget.NewToolbarAction(theme.DocumentCreateIcon(), pen),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), eraser),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { r.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { r.Redo() }),
		widget.NewToolbarAction(theme.DeleteIcon(), r.Clear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.HomeIcon(), board.ResetView),
	}
	if export != nil {
		actions = append(actions, widget.NewToolbarAction(theme.DocumentSaveIcon(), export))
	}
	tb := widget.NewToolbar(actions...)

	colors := container.NewHBox()
	for _, c := range palette {
		colors.Add(newColorSwatch(c, func(c state.ColorValue) {
			lastColor = c
			board.SetColor(c)
		}))
	}

	return container.NewHBox(
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colors,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), slider),
		layout.NewSpacer(),
	)
}
