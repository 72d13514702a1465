package server

import (
	"errors"
	"io"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

func newDetachedClient(t *testing.T, buffer int) *Client {
	t.Helper()
	cfg := defaultConfig()
	cfg.SendBufferSize = buffer
	return NewClient(nil, cfg, "127.0.0.1:12345", zaptest.NewLogger(t))
}

// TestClientSendAndClose verifies the sink contract: queued sends, refusal
// once full, and refusal after Close.
func TestClientSendAndClose(t *testing.T) {
	client := newDetachedClient(t, 2)

	require.True(t, client.Send("one"))
	require.True(t, client.Send("two"))
	assert.False(t, client.Send("three"), "full buffer must refuse")

	client.Close()
	client.Close()
	assert.False(t, client.Send("four"))

	var got []string
	for msg := range client.GetSendChan() {
		got = append(got, string(msg))
	}
	assert.Equal(t, []string{"one", "two"}, got)
}

// TestToFrame verifies the websocket to chat frame mapping.
func TestToFrame(t *testing.T) {
	assert.Equal(t, chat.TextFrame("hi"), toFrame(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, chat.OtherFrame{}, toFrame(websocket.BinaryMessage, []byte{0x01}))
}

// TestHandleReadError verifies that peer closes map to chat.ErrStreamClosed
// and everything else stays a terminal error.
func TestHandleReadError(t *testing.T) {
	client := newDetachedClient(t, 1)

	tests := []struct {
		name   string
		err    error
		closed bool
	}{
		{"normal close", &websocket.CloseError{Code: websocket.CloseNormalClosure}, true},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, true},
		{"abnormal", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, true},
		{"eof", io.EOF, true},
		{"closed conn", errors.New("read tcp: use of closed network connection"), true},
		{"read limit", websocket.ErrReadLimit, false},
		{"protocol error", &websocket.CloseError{Code: websocket.CloseProtocolError}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.handleReadError(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.closed, errors.Is(err, chat.ErrStreamClosed))
		})
	}
}
