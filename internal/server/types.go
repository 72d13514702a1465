// Package server defines transport helpers shared by client and hub logic.
package server

import (
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

// toFrame maps a websocket data frame onto the chat frame variant.
func toFrame(messageType int, data []byte) chat.Frame {
	if messageType == websocket.TextMessage {
		return chat.TextFrame(data)
	}
	return chat.OtherFrame{}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
