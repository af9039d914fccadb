package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
)

func TestProgressHub_BroadcastToClient(t *testing.T) {
	s := newTestServer(t, nil)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// Registration happens in the handler goroutine after the upgrade.
	require.Eventually(t, func() bool {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		return len(s.hub.conns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.hub.Broadcast(align.PairOutcome{
		Stage:  align.StageRotation,
		Index:  1,
		Status: align.StatusAligned,
		Angle:  -1.5,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ProgressMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "pair_outcome", msg.Type)
	assert.Equal(t, align.StageRotation, msg.Payload.Stage)
	assert.InDelta(t, -1.5, msg.Payload.Angle, 1e-9)
	assert.Empty(t, msg.Error)
}

func TestProgressHub_DropsDeadClients(t *testing.T) {
	hub := NewProgressHub()
	// Broadcasting with no clients is a no-op.
	hub.Broadcast(align.PairOutcome{Stage: align.StageTranslation, Status: align.StatusAligned})
	assert.Empty(t, hub.conns)
}
