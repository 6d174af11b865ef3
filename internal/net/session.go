package net

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalBoard/internal/coordinator"
	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from a client. A long stroke is a few thousand points.
	maxMessageSize = 1 << 20
)

// session is one websocket connection seen from the coordinator. Outbound events are
// queued without bound so the coordinator never waits on a slow client.
type session struct {
	id     state.UserID
	conn   *websocket.Conn
	coord  *coordinator.Coordinator
	logger *slog.Logger

	mu     sync.Mutex
	queue  []protocol.ServerEvent
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newSession(conn *websocket.Conn, coord *coordinator.Coordinator, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		coord:  coord,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Send implements coordinator.Conn.
func (s *session) Send(ev protocol.ServerEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) drain() []protocol.ServerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

// readPump feeds client frames to the coordinator until the connection fails.
func (s *session) readPump() {
	defer func() {
		s.coord.Disconnect(s.id)
		s.close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "user", s.id, "err", err)
			}
			return
		}
		if err := s.coord.HandleMessage(s.id, message); err != nil {
			if coordinator.Expected(err) {
				s.logger.Debug("event dropped", "user", s.id, "err", err)
			} else {
				s.logger.Warn("event rejected", "user", s.id, "err", err)
			}
		}
	}
}

// writePump delivers queued events and keeps the connection alive with pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.wake:
			for _, ev := range s.drain() {
				data, err := protocol.Encode(ev)
				if err != nil {
					s.logger.Error("failed to encode event", "event", ev.Name(), "err", err)
					continue
				}
				_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					s.logger.Warn("websocket write failed", "user", s.id, "err", err)
					return
				}
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
