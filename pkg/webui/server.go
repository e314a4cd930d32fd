// Package webui provides the optional local session monitor: a small HTTP
// server that relays session events to websocket clients.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/llmpc/llmpc/pkg/events"
	"github.com/llmpc/llmpc/pkg/utils"
)

// Server relays every event-bus message to connected websocket clients.
type Server struct {
	bus        *events.Bus
	logger     *utils.Logger
	upgrader   websocket.Upgrader
	httpServer *http.Server

	connections sync.Map // map[*SafeConn]string (session id)
	startTime   time.Time
	goal        string
	mutex       sync.RWMutex
}

// NewServer creates a monitor for the given bus and starts relaying events.
func NewServer(bus *events.Bus, logger *utils.Logger) *Server {
	s := &Server{
		bus:       bus,
		logger:    logger,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local monitor: accept localhost origins only.
				origin := r.Header.Get("Origin")
				return origin == "" || strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
			},
		},
	}
	go s.relay()
	return s
}

// SetGoal records the goal shown by /api/status.
func (s *Server) SetGoal(goal string) {
	s.mutex.Lock()
	s.goal = goal
	s.mutex.Unlock()
}

// Handler returns the monitor's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

// Start serves the monitor on the given port until Shutdown.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.Handler(),
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Logf("Web monitor stopped: %v", err)
		}
	}()
	s.logger.LogProcessStep(fmt.Sprintf("Web monitor listening on http://127.0.0.1:%d", port))
	return nil
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// relay forwards bus events to every connected client.
func (s *Server) relay() {
	for event := range s.bus.Subscribe("webui") {
		s.connections.Range(func(key, _ any) bool {
			conn := key.(*SafeConn)
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Logf("Web monitor write failed: %v", err)
			}
			return true
		})
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Logf("WebSocket upgrade error: %v", err)
		return
	}

	safeConn := NewSafeConn(conn)
	defer safeConn.Close()

	sessionID := fmt.Sprintf("ws_%d", time.Now().UnixNano())
	s.connections.Store(safeConn, sessionID)
	defer s.connections.Delete(safeConn)

	safeConn.WriteJSON(map[string]any{
		"type": "connection_status",
		"data": map[string]any{"connected": true, "session_id": sessionID},
	})

	// Block until the client goes away; the monitor is write-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mutex.RLock()
	goal := s.goal
	s.mutex.RUnlock()

	clients := 0
	s.connections.Range(func(any, any) bool {
		clients++
		return true
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"goal":    goal,
		"uptime":  time.Since(s.startTime).String(),
		"clients": clients,
	})
}
