package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"LocalBoard/internal/state"
)

// ErrMalformedEvent marks a frame that does not match the schema of any known event.
var ErrMalformedEvent = errors.New("malformed event")

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode serializes an event into its envelope.
func Encode(ev Event) ([]byte, error) {
	env := envelope{Event: ev.Name()}
	if p := normalize(ev.payload()); p != nil {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.Name(), err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// normalize keeps empty sequences encoded as [] rather than null.
func normalize(p any) any {
	switch v := p.(type) {
	case Init:
		if v.Users == nil {
			v.Users = []state.User{}
		}
		if v.DrawingHistory == nil {
			v.DrawingHistory = []state.Stroke{}
		}
		return v
	case []state.Stroke:
		if v == nil {
			return []state.Stroke{}
		}
	}
	return p
}

// DecodeClient parses a frame sent by a client.
func DecodeClient(raw []byte) (ClientEvent, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch env.Event {
	case EventDraw:
		s, err := decodeStroke(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return Draw{Stroke: s}, nil
	case EventCursorMove:
		p, err := decodePoint(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return CursorMove{Position: p}, nil
	case EventClearCanvas:
		if !absent(env.Data) {
			return nil, malformed(env.Event, errors.New("unexpected payload"))
		}
		return ClearCanvas{}, nil
	case EventUndo:
		if !absent(env.Data) {
			return nil, malformed(env.Event, errors.New("unexpected payload"))
		}
		return Undo{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, env.Event)
	}
}

// DecodeServer parses a frame sent by the coordinator.
func DecodeServer(raw []byte) (ServerEvent, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch env.Event {
	case EventInit:
		ev, err := decodeInit(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return ev, nil
	case EventUserConnected:
		u, err := decodeUser(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return UserConnected{User: u}, nil
	case EventUserDisconnected:
		var id string
		if err := strict(env.Data, &id); err != nil || id == "" {
			return nil, malformed(env.Event, errors.New("missing user id"))
		}
		return UserDisconnected{UserID: state.UserID(id)}, nil
	case EventDrawing:
		s, err := decodeStroke(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return Drawing{Stroke: s}, nil
	case EventUserCursorMove:
		c, err := decodeCursor(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return UserCursorMove{Cursor: c}, nil
	case EventCanvasCleared:
		if !absent(env.Data) {
			return nil, malformed(env.Event, errors.New("unexpected payload"))
		}
		return CanvasCleared{}, nil
	case EventUpdateHistory:
		h, err := decodeStrokes(env.Data)
		if err != nil {
			return nil, malformed(env.Event, err)
		}
		return UpdateHistory{History: h}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, env.Event)
	}
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Event == "" {
		return env, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	}
	return env, nil
}

func malformed(event string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, event, err)
}

func absent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// strict unmarshals a required payload.
func strict(data json.RawMessage, v any) error {
	if absent(data) {
		return errors.New("missing payload")
	}
	return json.Unmarshal(data, v)
}

type wirePoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (w wirePoint) point() (state.Point, error) {
	if w.X == nil || w.Y == nil {
		return state.Point{}, errors.New("point needs x and y")
	}
	return state.Point{X: *w.X, Y: *w.Y}, nil
}

type wireSegment struct {
	wirePoint
	Color state.ColorValue `json:"color"`
	Width float64          `json:"width"`
}

type wireStroke struct {
	Points *[]wireSegment `json:"points"`
	UserID state.UserID   `json:"userId"`
}

func (w wireStroke) stroke() (state.Stroke, error) {
	if w.Points == nil {
		return state.Stroke{}, errors.New("stroke needs points")
	}
	s := state.Stroke{UserID: w.UserID, Points: make([]state.Segment, 0, len(*w.Points))}
	for i, seg := range *w.Points {
		p, err := seg.point()
		if err != nil {
			return state.Stroke{}, fmt.Errorf("point %d: %w", i, err)
		}
		s.Points = append(s.Points, state.Segment{Point: p, Color: seg.Color, Width: seg.Width})
	}
	return s, nil
}

type wireUser struct {
	ID    state.UserID     `json:"id"`
	Color state.ColorValue `json:"color"`
	Name  string           `json:"name"`
}

func (w wireUser) user() (state.User, error) {
	if w.ID == "" || w.Color == "" {
		return state.User{}, errors.New("user needs id and color")
	}
	return state.User{ID: w.ID, Color: w.Color, Name: w.Name}, nil
}

func decodePoint(data json.RawMessage) (state.Point, error) {
	var w wirePoint
	if err := strict(data, &w); err != nil {
		return state.Point{}, err
	}
	return w.point()
}

func decodeStroke(data json.RawMessage) (state.Stroke, error) {
	var w wireStroke
	if err := strict(data, &w); err != nil {
		return state.Stroke{}, err
	}
	return w.stroke()
}

func decodeStrokes(data json.RawMessage) ([]state.Stroke, error) {
	var ws []wireStroke
	if err := strict(data, &ws); err != nil {
		return nil, err
	}
	out := make([]state.Stroke, 0, len(ws))
	for i, w := range ws {
		s, err := w.stroke()
		if err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeUser(data json.RawMessage) (state.User, error) {
	var w wireUser
	if err := strict(data, &w); err != nil {
		return state.User{}, err
	}
	return w.user()
}

func decodeCursor(data json.RawMessage) (state.Cursor, error) {
	var w struct {
		UserID   state.UserID     `json:"userId"`
		Position *wirePoint       `json:"position"`
		Color    state.ColorValue `json:"color"`
	}
	if err := strict(data, &w); err != nil {
		return state.Cursor{}, err
	}
	if w.UserID == "" || w.Position == nil {
		return state.Cursor{}, errors.New("cursor needs userId and position")
	}
	p, err := w.Position.point()
	if err != nil {
		return state.Cursor{}, err
	}
	return state.Cursor{UserID: w.UserID, Position: p, Color: w.Color}, nil
}

func decodeInit(data json.RawMessage) (Init, error) {
	var w struct {
		UserID         state.UserID     `json:"userId"`
		UserColor      state.ColorValue `json:"userColor"`
		Users          []wireUser       `json:"users"`
		DrawingHistory json.RawMessage  `json:"drawingHistory"`
	}
	if err := strict(data, &w); err != nil {
		return Init{}, err
	}
	if w.UserID == "" {
		return Init{}, errors.New("init needs userId")
	}
	ev := Init{UserID: w.UserID, UserColor: w.UserColor, Users: make([]state.User, 0, len(w.Users))}
	for _, wu := range w.Users {
		u, err := wu.user()
		if err != nil {
			return Init{}, err
		}
		ev.Users = append(ev.Users, u)
	}
	ev.DrawingHistory = []state.Stroke{}
	if !absent(w.DrawingHistory) {
		h, err := decodeStrokes(w.DrawingHistory)
		if err != nil {
			return Init{}, err
		}
		ev.DrawingHistory = h
	}
	return ev, nil
}
