// Package protocol defines the messages exchanged between the coordinator and its clients.
//
// Each websocket frame carries one envelope {"event": name, "data": payload}. The set of
// events is closed: ClientEvent and ServerEvent can only be implemented in this package.
package protocol

import (
	"LocalBoard/internal/state"
)

// Client to server.
const (
	EventDraw        = "draw"
	EventCursorMove  = "cursorMove"
	EventClearCanvas = "clearCanvas"
	EventUndo        = "undo"
)

// Server to client.
const (
	EventInit             = "init"
	EventUserConnected    = "userConnected"
	EventUserDisconnected = "userDisconnected"
	EventDrawing          = "drawing"
	EventUserCursorMove   = "userCursorMove"
	EventCanvasCleared    = "canvasCleared"
	EventUpdateHistory    = "updateHistory"
)

type Event interface {
	Name() string
	payload() any
}

// ClientEvent is an event a client sends to the coordinator.
type ClientEvent interface {
	Event
	clientEvent()
}

// ServerEvent is an event the coordinator sends to clients.
type ServerEvent interface {
	Event
	serverEvent()
}

// Draw commits a finished stroke. The coordinator overwrites Stroke.UserID.
type Draw struct {
	Stroke state.Stroke
}

type CursorMove struct {
	Position state.Point
}

type ClearCanvas struct{}

type Undo struct{}

func (Draw) Name() string        { return EventDraw }
func (CursorMove) Name() string  { return EventCursorMove }
func (ClearCanvas) Name() string { return EventClearCanvas }
func (Undo) Name() string        { return EventUndo }

func (e Draw) payload() any       { return e.Stroke }
func (e CursorMove) payload() any { return e.Position }
func (ClearCanvas) payload() any  { return nil }
func (Undo) payload() any         { return nil }

func (Draw) clientEvent()        {}
func (CursorMove) clientEvent()  {}
func (ClearCanvas) clientEvent() {}
func (Undo) clientEvent()        {}

// Init is the first message of every session.
type Init struct {
	UserID         state.UserID     `json:"userId"`
	UserColor      state.ColorValue `json:"userColor"`
	Users          []state.User     `json:"users"`
	DrawingHistory []state.Stroke   `json:"drawingHistory"`
}

type UserConnected struct {
	User state.User
}

type UserDisconnected struct {
	UserID state.UserID
}

type Drawing struct {
	Stroke state.Stroke
}

type UserCursorMove struct {
	Cursor state.Cursor
}

type CanvasCleared struct{}

// UpdateHistory carries the full authoritative history.
type UpdateHistory struct {
	History []state.Stroke
}

func (Init) Name() string             { return EventInit }
func (UserConnected) Name() string    { return EventUserConnected }
func (UserDisconnected) Name() string { return EventUserDisconnected }
func (Drawing) Name() string          { return EventDrawing }
func (UserCursorMove) Name() string   { return EventUserCursorMove }
func (CanvasCleared) Name() string    { return EventCanvasCleared }
func (UpdateHistory) Name() string    { return EventUpdateHistory }

func (e Init) payload() any             { return e }
func (e UserConnected) payload() any    { return e.User }
func (e UserDisconnected) payload() any { return e.UserID }
func (e Drawing) payload() any          { return e.Stroke }
func (e UserCursorMove) payload() any   { return e.Cursor }
func (CanvasCleared) payload() any      { return nil }
func (e UpdateHistory) payload() any    { return e.History }

func (Init) serverEvent()             {}
func (UserConnected) serverEvent()    {}
func (UserDisconnected) serverEvent() {}
func (Drawing) serverEvent()          {}
func (UserCursorMove) serverEvent()   {}
func (CanvasCleared) serverEvent()    {}
func (UpdateHistory) serverEvent()    {}
