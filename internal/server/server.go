// Package server is the websocket gateway: it frames the core's
// logical surface for remote callers and forwards event fan-out. It
// owns no game state.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server accepts websocket clients and hands their messages to the
// service layer.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	service  *Service

	mu          sync.Mutex
	connections map[*Connection]struct{}
	httpServer  *http.Server
}

// NewServer creates a gateway bound to addr.
func NewServer(addr string, logger *log.Logger, service *Service) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// origin checking belongs to the deployment's proxy
				return true
			},
		},
		logger:      logger.WithPrefix("server"),
		service:     service,
		connections: make(map[*Connection]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket and health
// endpoints; Run wraps it in a managed listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		_ = s.httpServer.Shutdown(context.Background())
		s.closeAll()
	}()

	s.logger.Info("Starting websocket server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]struct{})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, s.logger, s.service)

	s.mu.Lock()
	s.connections[conn] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	conn.Start()

	go func() {
		<-conn.ctx.Done()
		s.mu.Lock()
		delete(s.connections, conn)
		remaining := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "total", remaining)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}
