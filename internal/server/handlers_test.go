package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/whisperchat/internal/server"
)

// TestHealthHandler verifies the health endpoint for any method.
func TestHealthHandler(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/health", http.NoBody)
			rr := httptest.NewRecorder()

			server.HealthHandler(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			assert.Equal(t, "whisperchat server is running!", rr.Body.String())
		})
	}
}

// TestTestPageHandler verifies the test page links both endpoints.
func TestTestPageHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	server.TestPageHandler(rr, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `<option value="whisper">`)
}

// TestWebSocketEndpointsRejectNonGet verifies that upgrades require GET.
func TestWebSocketEndpointsRejectNonGet(t *testing.T) {
	env := startTestServer(t, nil)

	for _, path := range []string{"/chat", "/whisper"} {
		resp, err := http.Post(env.server.URL+path, "text/plain", http.NoBody)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}

// TestWebSocketRejectsDisallowedOrigin verifies the upgrade origin check.
func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	env := startTestServer(t, nil)

	_, err := dialWithOrigin(env.wsURL+"/chat", "http://evil.example")
	assert.Error(t, err)

	_, err = dialWithOrigin(env.wsURL+"/chat", "")
	assert.Error(t, err)
}

// TestMetricsEndpoint verifies the telemetry snapshot after some traffic.
func TestMetricsEndpoint(t *testing.T) {
	env := startTestServer(t, nil)
	conn := env.join(t, "/chat", "")
	say(t, conn, "ping")
	expectText(t, conn, "[user0]: ping")

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Contains(t, string(body), "whisperchat.message.routed")
}
