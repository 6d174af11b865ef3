// Package coordinator owns the shared whiteboard state and relays events between clients.
//
// A Coordinator is the single writer of the drawing history and the presence registry.
// Every event runs as one critical section, so events from concurrent connections are
// applied one at a time in arrival order. Outbound events are queued on the connection
// handles while the lock is held, which keeps each client's view of the event stream in
// the coordinator's order.
package coordinator

import (
	"fmt"
	"log/slog"
	"sync"

	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

type Coordinator struct {
	mu       sync.Mutex
	history  *state.History
	presence *state.Presence
	conns    *connections
	issued   map[state.UserID]struct{}
	identity state.IdentityFunc
	logger   *slog.Logger
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIdentity replaces the random id and color allocation.
func WithIdentity(f state.IdentityFunc) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.identity = f
		}
	}
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		history:  state.NewHistory(),
		presence: state.NewPresence(),
		conns:    newConnections(),
		issued:   make(map[state.UserID]struct{}),
		identity: state.RandomIdentity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect activates a new connection. The new client receives init with its identity,
// the user list and the full history; everyone else learns about the new user.
// Ids are never handed out twice, including ids of users that have left.
func (c *Coordinator) Connect(conn Conn, name string) (state.UserID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, color, err := c.allocate()
	if err != nil {
		return "", err
	}
	user := state.User{ID: id, Color: color, Name: name}

	c.presence.Register(user)
	c.conns.add(id, conn)

	conn.Send(protocol.Init{
		UserID:         id,
		UserColor:      color,
		Users:          c.presence.All(),
		DrawingHistory: c.history.Snapshot(),
	})
	c.conns.broadcast(protocol.UserConnected{User: user}, id)

	c.logger.Info("user connected", "user", id, "color", color, "users", c.presence.Len())
	return id, nil
}

func (c *Coordinator) allocate() (state.UserID, state.ColorValue, error) {
	for attempt := 0; attempt < maxIdentityAttempts; attempt++ {
		id, color := c.identity()
		if _, used := c.issued[id]; used || id == "" {
			continue
		}
		c.issued[id] = struct{}{}
		return id, color, nil
	}
	return "", "", fmt.Errorf("%w after %d attempts", ErrIdentityExhausted, maxIdentityAttempts)
}

// Disconnect removes the user and its handle, then tells the remaining clients.
// Calling it again for the same id does nothing.
func (c *Coordinator) Disconnect(id state.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.conns.remove(id) {
		return
	}
	c.presence.Unregister(id)
	c.conns.broadcast(protocol.UserDisconnected{UserID: id}, "")

	c.logger.Info("user disconnected", "user", id, "users", c.presence.Len())
}

// HandleMessage decodes a raw frame from the connection of id and applies it.
func (c *Coordinator) HandleMessage(id state.UserID, raw []byte) error {
	ev, err := protocol.DecodeClient(raw)
	if err != nil {
		return err
	}
	return c.Handle(id, ev)
}

// Handle applies one client event authoritatively and fans out the result.
func (c *Coordinator) Handle(id state.UserID, ev protocol.ClientEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, active := c.conns.get(id); !active {
		return fmt.Errorf("%s from %s: %w", ev.Name(), id, ErrUnknownUser)
	}

	switch e := ev.(type) {
	case protocol.Draw:
		return c.draw(id, e.Stroke)
	case protocol.CursorMove:
		return c.cursorMove(id, e.Position)
	case protocol.ClearCanvas:
		c.clearCanvas(id)
		return nil
	case protocol.Undo:
		return c.undo(id)
	default:
		return fmt.Errorf("%w: unhandled event %s", ErrMalformedEvent, ev.Name())
	}
}

func (c *Coordinator) draw(id state.UserID, s state.Stroke) error {
	if !s.Valid() {
		return fmt.Errorf("draw from %s with %d points: %w", id, len(s.Points), ErrInvalidStroke)
	}
	s = s.Clone()
	s.UserID = id
	c.history.Append(s)
	c.conns.broadcast(protocol.Drawing{Stroke: s}, id)

	c.logger.Debug("stroke committed", "user", id, "points", len(s.Points), "history", c.history.Len())
	return nil
}

func (c *Coordinator) cursorMove(id state.UserID, pos state.Point) error {
	cursor, err := c.presence.SetCursor(id, pos)
	if err != nil {
		return fmt.Errorf("cursor of %s: %w", id, err)
	}
	c.conns.broadcast(protocol.UserCursorMove{Cursor: cursor}, id)
	return nil
}

func (c *Coordinator) clearCanvas(id state.UserID) {
	c.history.Clear()
	c.conns.broadcast(protocol.CanvasCleared{}, "")

	c.logger.Info("canvas cleared", "user", id)
}

func (c *Coordinator) undo(id state.UserID) error {
	if _, err := c.history.PopLast(); err != nil {
		return fmt.Errorf("undo from %s: %w", id, err)
	}
	snapshot := c.history.Snapshot()
	c.conns.broadcast(protocol.UpdateHistory{History: snapshot}, "")

	c.logger.Debug("stroke undone", "user", id, "history", len(snapshot))
	return nil
}

// Snapshot returns a copy of the authoritative history.
func (c *Coordinator) Snapshot() []state.Stroke {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Snapshot()
}

// Users lists connected users in connect order.
func (c *Coordinator) Users() []state.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.All()
}

type Stats struct {
	Connections int `json:"connections"`
	Strokes     int `json:"strokes"`
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Connections: c.conns.len(), Strokes: c.history.Len()}
}
