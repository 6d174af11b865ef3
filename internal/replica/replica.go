// Package replica keeps a client's local mirror of the shared whiteboard.
//
// Local input is applied optimistically and sent to the coordinator; coordinator
// broadcasts are applied as they arrive. Whenever the coordinator sends a full
// history (init, updateHistory, canvasCleared) the replica replaces its copy and the
// renderer repaints everything, so the mirror converges even if deltas were missed.
package replica

import (
	"log/slog"
	"sync"

	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

// Replica is safe for concurrent use. Renderer calls are made in the same order as the
// state changes they reflect, one at a time and without mu held; a Renderer must not
// call the replica's mutating methods synchronously.
type Replica struct {
	// paintMu orders each state change together with its repaint. Taken before mu.
	paintMu  sync.Mutex
	mu       sync.Mutex
	self     state.User
	ready    bool
	history  []state.Stroke
	redo     []state.Stroke
	users    []state.User
	cursors  map[state.UserID]state.Cursor
	current  *state.Stroke
	outbox   Outbox
	renderer Renderer
	logger   *slog.Logger
}

type Option func(*Replica)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Replica) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(outbox Outbox, renderer Renderer, opts ...Option) *Replica {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	r := &Replica{
		history:  make([]state.Stroke, 0),
		cursors:  make(map[state.UserID]state.Cursor),
		outbox:   outbox,
		renderer: renderer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetRenderer swaps the renderer and repaints with it.
func (r *Replica) SetRenderer(renderer Renderer) {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	r.renderer = renderer
	history := state.CloneStrokes(r.history)
	users := r.usersLocked()
	r.mu.Unlock()

	renderer.UsersChanged(users)
	renderer.Redraw(history)
}

func (r *Replica) send(ev protocol.ClientEvent) {
	if r.outbox == nil {
		return
	}
	if err := r.outbox.Send(ev); err != nil {
		r.logger.Warn("failed to send event", "event", ev.Name(), "err", err)
	}
}

// BeginStroke starts a stroke at p. Every segment added until EndStroke uses color and width.
func (r *Replica) BeginStroke(p state.Point, color state.ColorValue, width float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &state.Stroke{
		UserID: r.self.ID,
		Points: []state.Segment{{Point: p, Color: color, Width: width}},
	}
}

// ExtendStroke adds p to the stroke in progress and paints the new segment right away.
func (r *Replica) ExtendStroke(p state.Point) {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return
	}
	prev := r.current.Points[len(r.current.Points)-1]
	seg := state.Segment{Point: p, Color: prev.Color, Width: prev.Width}
	r.current.Points = append(r.current.Points, seg)
	renderer := r.renderer
	r.mu.Unlock()

	renderer.DrawSegment(prev, seg)
}

// EndStroke commits the stroke in progress to the local history, paints it and sends it.
// Strokes too short to be visible are dropped and false is returned.
func (r *Replica) EndStroke() bool {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return false
	}
	s := *r.current
	r.current = nil
	if !s.Valid() {
		r.mu.Unlock()
		return false
	}
	s.UserID = r.self.ID
	r.history = append(r.history, s)
	renderer := r.renderer
	r.mu.Unlock()

	r.send(protocol.Draw{Stroke: s.Clone()})
	renderer.DrawStroke(s.Clone())
	return true
}

// MoveCursor reports the local pointer position to the others.
func (r *Replica) MoveCursor(p state.Point) {
	r.send(protocol.CursorMove{Position: p})
}

// Undo takes the last stroke off the local history onto the redo stack and asks the
// coordinator to undo. The coordinator's updateHistory is what finally counts.
func (r *Replica) Undo() bool {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	n := len(r.history)
	if n == 0 {
		r.mu.Unlock()
		return false
	}
	last := r.history[n-1]
	r.history = r.history[:n-1]
	r.redo = append(r.redo, last)
	history := state.CloneStrokes(r.history)
	renderer := r.renderer
	r.mu.Unlock()

	r.send(protocol.Undo{})
	renderer.Redraw(history)
	return true
}

// Redo re-sends the most recently undone stroke as a new draw. It lands at the tail of
// the shared history, not at its original position.
func (r *Replica) Redo() bool {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	n := len(r.redo)
	if n == 0 {
		r.mu.Unlock()
		return false
	}
	s := r.redo[n-1]
	r.redo = r.redo[:n-1]
	r.history = append(r.history, s)
	history := state.CloneStrokes(r.history)
	renderer := r.renderer
	r.mu.Unlock()

	r.send(protocol.Draw{Stroke: s.Clone()})
	renderer.Redraw(history)
	return true
}

// Clear empties the canvas for everyone and drops the local redo stack.
func (r *Replica) Clear() {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	r.history = make([]state.Stroke, 0)
	r.redo = nil
	renderer := r.renderer
	r.mu.Unlock()

	r.send(protocol.ClearCanvas{})
	renderer.Redraw([]state.Stroke{})
}

// Apply reconciles the replica with one coordinator broadcast.
func (r *Replica) Apply(ev protocol.ServerEvent) {
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	r.mu.Lock()
	renderer := r.renderer
	var paint func()

	switch e := ev.(type) {
	case protocol.Init:
		r.self = state.User{ID: e.UserID, Color: e.UserColor}
		r.users = append([]state.User(nil), e.Users...)
		for _, u := range e.Users {
			if u.ID == e.UserID {
				r.self = u
			}
		}
		r.history = state.CloneStrokes(e.DrawingHistory)
		r.cursors = make(map[state.UserID]state.Cursor)
		r.ready = true
		users, history := r.usersLocked(), state.CloneStrokes(r.history)
		paint = func() {
			renderer.UsersChanged(users)
			renderer.Redraw(history)
		}
	case protocol.UserConnected:
		r.removeUserLocked(e.User.ID)
		r.users = append(r.users, e.User)
		users := r.usersLocked()
		paint = func() { renderer.UsersChanged(users) }
	case protocol.UserDisconnected:
		r.removeUserLocked(e.UserID)
		delete(r.cursors, e.UserID)
		users := r.usersLocked()
		paint = func() {
			renderer.CursorRemoved(e.UserID)
			renderer.UsersChanged(users)
		}
	case protocol.Drawing:
		s := e.Stroke.Clone()
		r.history = append(r.history, s)
		paint = func() { renderer.DrawStroke(s) }
	case protocol.UserCursorMove:
		if e.Cursor.UserID == r.self.ID {
			break
		}
		r.cursors[e.Cursor.UserID] = e.Cursor
		paint = func() { renderer.CursorMoved(e.Cursor) }
	case protocol.CanvasCleared:
		r.history = make([]state.Stroke, 0)
		paint = func() { renderer.Redraw([]state.Stroke{}) }
	case protocol.UpdateHistory:
		r.history = state.CloneStrokes(e.History)
		history := state.CloneStrokes(r.history)
		paint = func() { renderer.Redraw(history) }
	default:
		r.logger.Warn("ignoring unknown event", "event", ev.Name())
	}
	r.mu.Unlock()

	if paint != nil {
		paint()
	}
}

func (r *Replica) removeUserLocked(id state.UserID) {
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i:i], r.users[i+1:]...)
			return
		}
	}
}

func (r *Replica) usersLocked() []state.User {
	return append([]state.User(nil), r.users...)
}

// Ready reports whether init has been received.
func (r *Replica) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *Replica) Self() state.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self
}

// History returns a copy of the local history.
func (r *Replica) History() []state.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return state.CloneStrokes(r.history)
}

// Users lists everyone connected, the local user included.
func (r *Replica) Users() []state.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usersLocked()
}

// Cursors returns the last known pointer of every other user.
func (r *Replica) Cursors() []state.Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.Cursor, 0, len(r.cursors))
	for _, u := range r.users {
		if c, ok := r.cursors[u.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// InProgress returns the stroke currently being drawn, if any.
func (r *Replica) InProgress() (state.Stroke, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return state.Stroke{}, false
	}
	return r.current.Clone(), true
}

func (r *Replica) CanUndo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history) > 0
}

func (r *Replica) CanRedo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redo) > 0
}
