// Package server is the websocket relay chatbox clients connect to. It keeps
// no history: frames are fanned out to the channel members connected at the
// time and then forgotten.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config holds the relay configuration
type Config struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MaxMessageSize int64  `toml:"max_message_size"`
	Debug          bool   `toml:"debug"`
}

// DefaultConfig returns the default relay configuration
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           8080,
		MaxMessageSize: 64 * 1024,
		Debug:          false,
	}
}

// Addr returns the host:port the relay listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is the relay
type Server struct {
	config   *Config
	hub      *Hub
	handlers *Handlers
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a new relay
func New(config *Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := NewHub(logger.Named("hub"))

	return &Server{
		config:   config,
		hub:      hub,
		handlers: NewHandlers(hub, logger.Named("handlers")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Terminal clients send no Origin header
				return true
			},
		},
		logger: logger,
	}
}

// Handler returns the relay's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run listens on the configured address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down the
// HTTP server and the hub
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.hub.Run(hubCtx)
	}()

	httpServer := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	s.logger.Info("Relay listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("endpoint", "ws://"+ln.Addr().String()+"/ws"))

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down relay")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown error", zap.Error(err))
		}
		cancel()
		<-errCh
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	// Closing every send queue makes the write pumps close their sockets
	stopHub()
	<-hubDone
	s.logger.Info("Relay stopped")
	return serveErr
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, s.hub, s.handlers, s.config.MaxMessageSize, s.logger.Named("client"))
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	client.SendHello()

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.hub.mu.RLock()
	clients := len(s.hub.clients)
	channels := len(s.hub.channels)
	s.hub.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"clients":  clients,
		"channels": channels,
		"time":     time.Now().UTC(),
	})
}
