package httpapi

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub is the /api/debug/stream live-view channel: the initial State of each
// newly started session and the State reached by each step-forward are
// broadcast to connected viewers, outside the request/response endpoints.
// Step-backward and get-state results are not broadcast. A client registry
// guarded by a mutex, best-effort write, drop on error.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	upgrade websocket.Upgrader
}

func newHub() *Hub {
	return &Hub{
		clients: map[*websocket.Conn]bool{},
		upgrade: websocket.Upgrader{
			ReadBufferSize: 1024, WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("httpapi: websocket upgrade failed: %v", err)
		return
	}
	s.hub.mu.Lock()
	s.hub.clients[conn] = true
	s.hub.mu.Unlock()

	// Drain the connection so the hub notices a closed client; this
	// channel is broadcast-only, so any message from the client is
	// ignored.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

type streamMessage struct {
	SessionID string    `json:"sessionId"`
	State     WireState `json:"state"`
}

func (h *Hub) broadcastState(sessionID string, state WireState) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}
	msg := streamMessage{SessionID: sessionID, State: state}
	for _, c := range conns {
		if err := c.WriteJSON(msg); err != nil {
			h.remove(c)
		}
	}
}
