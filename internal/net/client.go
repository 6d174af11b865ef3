package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalBoard/internal/config"
	"LocalBoard/internal/protocol"
	"LocalBoard/internal/replica"
)

var ErrClientClosed = errors.New("client closed")

// Client is one participant's connection to a coordinator. It is the Outbox of the
// participant's Replica.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	closed  bool
}

// Dial connects to a coordinator. target is either a share link or a ws:// URL; name is
// the display name announced to the others and may be empty.
func Dial(ctx context.Context, target, name string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.HasPrefix(target, config.URLScheme) {
		wsURL, err := WebSocketURL(target)
		if err != nil {
			return nil, err
		}
		target = wsURL
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse coordinator url: %w", err)
	}
	if name != "" {
		q := u.Query()
		q.Set("name", name)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: writeWait}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &Client{conn: conn, logger: logger}, nil
}

// Send implements replica.Outbox.
func (c *Client) Send(ev protocol.ClientEvent) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", ev.Name(), err)
	}
	return nil
}

// Run applies every server event to r until ctx is done or the connection ends. It
// returns nil when ctx was cancelled or the coordinator closed the connection normally.
func (c *Client) Run(ctx context.Context, r *replica.Replica) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from coordinator: %w", err)
		}
		ev, err := protocol.DecodeServer(message)
		if err != nil {
			c.logger.Warn("skipping server frame", "err", err)
			continue
		}
		r.Apply(ev)
	}
}

// Close says goodbye to the coordinator and releases the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return c.conn.Close()
}
