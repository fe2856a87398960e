package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:8080"

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type testSystem struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Online int    `json:"online"`
	Time   int64  `json:"time"`
}

type testMessage struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Time   int64  `json:"time"`
	Avatar string `json:"avatar"`
}

func quietLogger() *slog.Logger {
	return NewLogger("error", io.Discard)
}

// startTestServer runs the full route table against a fresh hub. The hub is
// shut down before the HTTP server closes.
func startTestServer(t *testing.T, customize func(cfg *Config)) (*Hub, *httptest.Server, string) {
	t.Helper()

	cfg := defaultConfig()
	if customize != nil {
		customize(&cfg)
	}
	hub := NewHub(cfg, quietLogger())
	srv := httptest.NewServer(SetupRoutes(NewHandlers(hub)))
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		srv.Close()
	})

	return hub, srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialWithOrigin(wsURL, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	return dialer.Dial(wsURL, header)
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := dialWithOrigin(wsURL, testOrigin)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame testFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// expectEvent reads frames until one named event arrives.
func expectEvent(t *testing.T, conn *websocket.Conn, event string) testFrame {
	t.Helper()
	for {
		frame := readFrame(t, conn)
		if frame.Event == event {
			return frame
		}
	}
}

func expectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	var frame testFrame
	err := conn.ReadJSON(&frame)
	require.Error(t, err, "unexpected frame %q: %s", frame.Event, frame.Data)
}

func decodeData[T any](t *testing.T, frame testFrame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(frame.Data, &v))
	return v
}

// joinRoom joins and consumes the history, system and roomList frames.
func joinRoom(t *testing.T, conn *websocket.Conn, name, room string) []testMessage {
	t.Helper()
	sendFrame(t, conn, "join", map[string]string{"name": name, "room": room})
	history := decodeData[[]testMessage](t, expectEvent(t, conn, "history"))
	expectEvent(t, conn, "system")
	expectEvent(t, conn, "roomList")
	return history
}
