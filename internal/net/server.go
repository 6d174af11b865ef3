package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"LocalBoard/internal/config"
	"LocalBoard/internal/coordinator"
	"LocalBoard/internal/export"
)

// Server exposes a Coordinator over HTTP: the websocket endpoint clients draw through,
// plus read-only views of the shared state.
type Server struct {
	cfg        *config.Config
	coord      *coordinator.Coordinator
	logger     *slog.Logger
	router     *mux.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener
}

func NewServer(cfg *config.Config, coord *coordinator.Coordinator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		coord:  coord,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Boards are shared by link on the local network.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(s.accessLog)
	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(s.handleWebSocket)
	r.Methods(http.MethodGet).Path("/api/history").HandlerFunc(s.handleHistory)
	r.Methods(http.MethodGet).Path("/api/users").HandlerFunc(s.handleUsers)
	r.Methods(http.MethodGet).Path("/api/stats").HandlerFunc(s.handleStats)
	r.Methods(http.MethodGet).Path("/export.pdf").HandlerFunc(s.handleExport)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		s.logger.Info("coordinator listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "err", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests. Hijacked websocket connections are not tracked by
// http.Server, so they end when the process exits or the peer goes away.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("handled", "method", r.Method, "url", r.URL.Path, "duration", m.Duration, "status", m.Code, "bytes", m.Written)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sess := newSession(conn, s.coord, s.logger)
	id, err := s.coord.Connect(sess, r.URL.Query().Get("name"))
	if err != nil {
		s.logger.Error("refusing connection", "remote", r.RemoteAddr, "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "no user id available"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	sess.id = id
	s.logger.Debug("session started", "user", sess.id, "remote", r.RemoteAddr)

	go sess.writePump()
	sess.readPump()
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.coord.Snapshot())
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.coord.Users())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.coord.Stats())
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, s.coord.Snapshot()); err != nil {
		s.logger.Error("pdf export failed", "err", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="localboard.pdf"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write export", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "err", err)
	}
}
