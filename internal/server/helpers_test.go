package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Tyrowin/whisperchat/internal/chat"
	"github.com/Tyrowin/whisperchat/internal/server"
)

const testOriginURL = "http://localhost:8080"

// testEnv is a running hub behind an httptest server.
type testEnv struct {
	hub    *server.Hub
	sink   *metrics.InmemSink
	server *httptest.Server
	wsURL  string
}

// startTestServer creates a hub and test server with the given config
// overrides applied to the defaults.
func startTestServer(t *testing.T, mutate func(*server.Config)) *testEnv {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{testOriginURL}
	if mutate != nil {
		mutate(cfg)
	}

	logger := zaptest.NewLogger(t)
	sink := metrics.NewInmemSink(time.Second, time.Minute)
	svc := chat.NewService(chat.WithLogger(logger), chat.WithMetricSink(sink))
	hub := server.NewHub(*cfg, svc, logger)
	ts := httptest.NewServer(server.SetupRoutes(hub, sink))

	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, hub.Shutdown(5*time.Second))
	})

	return &testEnv{
		hub:    hub,
		sink:   sink,
		server: ts,
		wsURL:  "ws" + strings.TrimPrefix(ts.URL, "http"),
	}
}

// dial opens a websocket to path with an allowed Origin header.
func (e *testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	conn, err := dialWithOrigin(e.wsURL+path, testOriginURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// dialWithOrigin creates a WebSocket connection with the given Origin header.
func dialWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func say(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// expectText reads text frames until one contains want.
func expectText(t *testing.T, conn *websocket.Conn, want string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		messageType, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)
		if messageType == websocket.TextMessage && strings.Contains(string(data), want) {
			return string(data)
		}
	}
}

// readUntil reads text frames until one contains want and returns every
// frame seen, including the match.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []string {
	t.Helper()
	var seen []string
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)
		seen = append(seen, string(data))
		if strings.Contains(string(data), want) {
			return seen
		}
	}
}

// expectNoText asserts that no frame containing unwanted arrives within d.
// The connection cannot be read from afterwards.
func expectNoText(t *testing.T, conn *websocket.Conn, unwanted string, d time.Duration) {
	t.Helper()
	deadline := time.Now().Add(d)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		require.NotContains(t, string(data), unwanted)
	}
}

// join dials path and completes nick negotiation. An empty nick declines.
func (e *testEnv) join(t *testing.T, path, nick string) *websocket.Conn {
	t.Helper()
	conn := e.dial(t, path)
	expectText(t, conn, "Do you need to set your nick?")
	if nick == "" {
		say(t, conn, "n")
		expectText(t, conn, "Ok! Welcome")
		return conn
	}
	say(t, conn, "y")
	expectText(t, conn, "What is your nick?")
	say(t, conn, nick)
	expectText(t, conn, "Welcome, "+nick+"!")
	return conn
}
