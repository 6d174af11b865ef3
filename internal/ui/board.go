package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LocalBoard/internal/replica"
	"LocalBoard/internal/state"
)

const (
	defaultWidth = 3.0
	eraserWidth  = 20.0
	cursorSize   = 10
)

var background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// BoardWidget paints a Replica and turns mouse input into its local operations.
// The primary button draws; dragging with any other button pans the board.
type BoardWidget struct {
	widget.BaseWidget
	replica *replica.Replica

	mu      sync.Mutex
	strokes []state.Stroke
	live    [][2]state.Segment
	cursors map[state.UserID]state.Cursor
	users   []state.User
	color   state.ColorValue
	width   float64
	drawing bool
	panX    float32
	panY    float32

	// OnUsersChanged runs on the fyne thread whenever the participant list changes.
	OnUsersChanged func([]state.User)
}

var (
	_ fyne.Widget       = (*BoardWidget)(nil)
	_ fyne.Draggable    = (*BoardWidget)(nil)
	_ fyne.Scrollable   = (*BoardWidget)(nil)
	_ desktop.Mouseable = (*BoardWidget)(nil)
	_ desktop.Hoverable = (*BoardWidget)(nil)
	_ replica.Renderer  = (*BoardWidget)(nil)
)

func NewBoardWidget(r *replica.Replica) *BoardWidget {
	b := &BoardWidget{
		replica: r,
		cursors: make(map[state.UserID]state.Cursor),
		color:   state.Black,
		width:   defaultWidth,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) SetColor(c state.ColorValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.color = c
}

func (b *BoardWidget) SetWidth(w float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width = w
}

func (b *BoardWidget) Width() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

func (b *BoardWidget) refresh() {
	fyne.Do(b.Refresh)
}

// Redraw implements replica.Renderer.
func (b *BoardWidget) Redraw(history []state.Stroke) {
	b.mu.Lock()
	b.strokes = history
	b.mu.Unlock()
	b.refresh()
}

func (b *BoardWidget) DrawStroke(s state.Stroke) {
	b.mu.Lock()
	b.strokes = append(b.strokes, s)
	b.mu.Unlock()
	b.refresh()
}

func (b *BoardWidget) DrawSegment(from, to state.Segment) {
	b.mu.Lock()
	b.live = append(b.live, [2]state.Segment{from, to})
	b.mu.Unlock()
	b.refresh()
}

func (b *BoardWidget) CursorMoved(c state.Cursor) {
	b.mu.Lock()
	b.cursors[c.UserID] = c
	b.mu.Unlock()
	b.refresh()
}

func (b *BoardWidget) CursorRemoved(id state.UserID) {
	b.mu.Lock()
	delete(b.cursors, id)
	b.mu.Unlock()
	b.refresh()
}

func (b *BoardWidget) UsersChanged(users []state.User) {
	b.mu.Lock()
	b.users = users
	b.mu.Unlock()
	fyne.Do(func() {
		if b.OnUsersChanged != nil {
			b.OnUsersChanged(users)
		}
		b.Refresh()
	})
}

func (b *BoardWidget) toBoard(pos fyne.Position) state.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	return state.Point{X: float64(pos.X - b.panX), Y: float64(pos.Y - b.panY)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p := b.toBoard(e.Position)
	b.mu.Lock()
	b.drawing = true
	b.live = nil
	c, w := b.color, b.width
	b.mu.Unlock()
	b.replica.BeginStroke(p, c, w)
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.finishStroke()
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.mu.Lock()
	drawing := b.drawing
	if !drawing {
		b.panX += e.Dragged.DX
		b.panY += e.Dragged.DY
	}
	b.mu.Unlock()

	if !drawing {
		b.Refresh()
		return
	}
	b.replica.ExtendStroke(b.toBoard(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.finishStroke()
}

func (b *BoardWidget) finishStroke() {
	b.mu.Lock()
	if !b.drawing {
		b.mu.Unlock()
		return
	}
	b.drawing = false
	b.live = nil
	b.mu.Unlock()

	if !b.replica.EndStroke() {
		b.Refresh()
	}
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut()                   {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.replica.MoveCursor(b.toBoard(e.Position))
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.mu.Lock()
	b.panX += e.Scrolled.DX
	b.panY += e.Scrolled.DY
	b.mu.Unlock()
	b.Refresh()
}

// ResetView scrolls back to the board origin.
func (b *BoardWidget) ResetView() {
	b.mu.Lock()
	b.panX, b.panY = 0, 0
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{board: b, background: canvas.NewRectangle(background)}
	r.Refresh()
	return r
}

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *boardRenderer) Refresh() {
	b := r.board
	b.mu.Lock()
	panX, panY := b.panX, b.panY
	objects := []fyne.CanvasObject{r.background}
	at := func(p state.Point) fyne.Position {
		return fyne.NewPos(float32(p.X)+panX, float32(p.Y)+panY)
	}
	line := func(from, to state.Segment) {
		l := canvas.NewLine(to.Color.NRGBA())
		l.StrokeWidth = float32(to.Width)
		l.Position1 = at(from.Point)
		l.Position2 = at(to.Point)
		objects = append(objects, l)
	}
	for _, s := range b.strokes {
		for i := 1; i < len(s.Points); i++ {
			line(s.Points[i-1], s.Points[i])
		}
	}
	for _, seg := range b.live {
		line(seg[0], seg[1])
	}
	for _, u := range b.users {
		c, ok := b.cursors[u.ID]
		if !ok {
			continue
		}
		pos := at(c.Position)
		dot := canvas.NewCircle(c.Color.NRGBA())
		dot.Resize(fyne.NewSize(cursorSize, cursorSize))
		dot.Move(pos.SubtractXY(cursorSize/2, cursorSize/2))
		label := canvas.NewText(u.Label(), c.Color.NRGBA())
		label.TextSize = 11
		label.Move(pos.AddXY(cursorSize, 0))
		objects = append(objects, dot, label)
	}
	b.mu.Unlock()

	r.objects = objects
	canvas.Refresh(b)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Destroy() {}
