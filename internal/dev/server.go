// Package dev runs the hot-reload development server used by watch
// mode. It keeps the latest compiled module per component file,
// serves modules over HTTP, and pushes rebuild notifications to
// connected clients over WebSocket so a dev page can swap components
// without a full reload.
package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/jettary/vueify-through2/internal/logging"
)

// UpdateMessage is pushed to clients after each recompile.
type UpdateMessage struct {
	// Type is "update" for a successful rebuild, "error" for a failed
	// one
	Type string `json:"type"`
	// File is the component file that changed
	File string `json:"file"`
	// ScopeID is the component's scope identifier
	ScopeID string `json:"scopeId,omitempty"`
	// Code is the recompiled module text (update messages only)
	Code string `json:"code,omitempty"`
	// Error is the compile failure text (error messages only)
	Error string `json:"error,omitempty"`
}

// Server is the hot-reload dev server.
type Server struct {
	addr   string
	logger logging.Logger

	mu      sync.RWMutex
	modules map[string]string // file path -> compiled module text
	clients map[*client]struct{}

	httpServer *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a dev server listening on host:port.
func NewServer(host string, port int, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		addr:    fmt.Sprintf("%s:%d", host, port),
		logger:  logger.WithComponent("dev"),
		modules: make(map[string]string),
		clients: make(map[*client]struct{}),
	}
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/modules/", s.handleModule)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Publish records a successful rebuild and notifies clients.
func (s *Server) Publish(ctx context.Context, file, scopeID, code string) {
	s.mu.Lock()
	s.modules[file] = code
	s.mu.Unlock()

	s.broadcast(ctx, UpdateMessage{Type: "update", File: file, ScopeID: scopeID, Code: code})
}

// PublishError notifies clients of a failed rebuild.
func (s *Server) PublishError(ctx context.Context, file string, err error) {
	s.broadcast(ctx, UpdateMessage{Type: "error", File: file, Error: err.Error()})
}

func (s *Server) broadcast(ctx context.Context, msg UpdateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "marshaling update message")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, skip this message
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	go func() {
		// Drain reads so pings and client closes are processed
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// handleModule serves the latest compiled text of one module by file
// base name.
func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for file, code := range s.modules {
		if filepath.Base(file)+".js" == name || filepath.Base(file) == name {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			fmt.Fprint(w, code)
			return
		}
	}
	http.NotFound(w, r)
}
