package replica

import (
	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

// Renderer paints what the replica holds. Calls are made after the replica's lock is
// released, from whichever goroutine changed the state.
type Renderer interface {
	// Redraw repaints the whole canvas from history.
	Redraw(history []state.Stroke)
	// DrawStroke paints one stroke on top of what is already there.
	DrawStroke(s state.Stroke)
	// DrawSegment paints the line from "from" to "to" of a stroke still being drawn.
	DrawSegment(from, to state.Segment)
	CursorMoved(c state.Cursor)
	CursorRemoved(id state.UserID)
	UsersChanged(users []state.User)
}

// Outbox delivers client events to the coordinator.
type Outbox interface {
	Send(ev protocol.ClientEvent) error
}

// NopRenderer ignores everything; useful for headless replicas.
type NopRenderer struct{}

func (NopRenderer) Redraw([]state.Stroke)          {}
func (NopRenderer) DrawStroke(state.Stroke)        {}
func (NopRenderer) DrawSegment(_, _ state.Segment) {}
func (NopRenderer) CursorMoved(state.Cursor)       {}
func (NopRenderer) CursorRemoved(state.UserID)     {}
func (NopRenderer) UsersChanged([]state.User)      {}
