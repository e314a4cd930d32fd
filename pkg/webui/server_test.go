package webui

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

	"github.com/llmpc/llmpc/pkg/events"
	"github.com/llmpc/llmpc/pkg/utils"
)

func newTestMonitor(t *testing.T) (*Server, *events.Bus, *httptest.Server) {
	t.Helper()
	bus := events.NewBus()
	server := NewServer(bus, utils.GetLogger(true))
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, bus, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketReceivesEvents(t *testing.T) {
	_, bus, ts := newTestMonitor(t)
	conn := dialWS(t, ts)

	// First frame is the connection handshake.
	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connection_status", hello["type"])

	// Give the relay a moment to see the registered connection, then publish.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.TypePlanProduced, []string{"step one"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, events.TypePlanProduced, evt.Type)
	assert.NotEmpty(t, evt.ID)
}

func TestStatusEndpoint(t *testing.T) {
	server, _, ts := newTestMonitor(t)
	server.SetGoal("build the thing")

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "build the thing", status["goal"])
	assert.Contains(t, status, "uptime")
}

func TestMultipleClientsAllReceive(t *testing.T) {
	_, bus, ts := newTestMonitor(t)

	connA := dialWS(t, ts)
	connB := dialWS(t, ts)

	var hello map[string]any
	require.NoError(t, connA.ReadJSON(&hello))
	require.NoError(t, connB.ReadJSON(&hello))

	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.TypeFileChanged, "a.txt")

	for _, conn := range []*websocket.Conn{connA, connB} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var evt events.Event
		require.NoError(t, conn.ReadJSON(&evt))
		assert.Equal(t, events.TypeFileChanged, evt.Type)
		assert.Equal(t, "a.txt", evt.Data)
	}
}
