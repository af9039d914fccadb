package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// ProgressMessage is one WebSocket frame on the progress stream.
type ProgressMessage struct {
	Type    string            `json:"type"`
	Payload align.PairOutcome `json:"payload"`
	Error   string            `json:"error,omitempty"`
}

// ProgressHub fans per-pair outcomes out to every connected progress client.
// Alignment runs don't know who is listening; they just publish.
type ProgressHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *ProgressHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *ProgressHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Broadcast sends an outcome to every connected client. Write failures drop
// the client; a slow consumer never stalls an alignment run for long because
// each write carries a deadline.
func (h *ProgressHub) Broadcast(outcome align.PairOutcome) {
	msg := ProgressMessage{Type: "pair_outcome", Payload: outcome}
	if outcome.Err != nil {
		msg.Error = outcome.Err.Error()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal progress message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(h.conns, conn)
			continue
		}
		websocketMessagesTotal.WithLabelValues("sent").Inc()
	}
}

// progressHandler upgrades the connection and streams pair outcomes until the
// client disconnects.
func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}

	websocketConnections.Inc()
	s.hub.register(conn)
	slog.Info("progress client connected", "remote_addr", r.RemoteAddr)

	defer func() {
		s.hub.unregister(conn)
		websocketConnections.Dec()
		_ = conn.Close()
	}()

	// Keep the connection alive with pings; the read loop only exists to
	// notice the client going away.
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Error("progress WebSocket error", "error", err)
				}
				return
			}
			websocketMessagesTotal.WithLabelValues("received").Inc()
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
