// Package web exposes the story engine over websockets. One connection maps
// to one user; commands and pushes share the Envelope frame.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dungeonworks/storyteller/internal/engine"
)

const DefaultPort = 8080

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the websocket endpoint. It implements the service worker
// contract: Start blocks until ctx is cancelled.
type Server struct {
	port    uint16
	manager *engine.Manager
	logger  *slog.Logger
}

type ServerOpt func(*Server)

func WithPort(port uint16) ServerOpt {
	return func(s *Server) { s.port = port }
}

func WithLogger(logger *slog.Logger) ServerOpt {
	return func(s *Server) { s.logger = logger }
}

func NewServer(manager *engine.Manager, opts ...ServerOpt) *Server {
	s := &Server{
		port:    DefaultPort,
		manager: manager,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.serveWs(ctx, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	svr := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("shutting down web server", "error", err)
			}
		case <-done:
		}
	}()

	s.logger.Info("web server listening", "port", s.port)
	err := svr.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving web on port %d: %w", s.port, err)
	}
	return nil
}

// serveWs upgrades the request and runs the client until it disconnects. The
// user id comes from the query string so a reconnecting browser lands on its
// existing engine.
func (s *Server) serveWs(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}

	client := newClient(conn, r.URL.Query().Get("user"), s.manager, s.logger)
	client.run(ctx)
}
