package chat

import (
	"context"
	"errors"
)

// ErrStreamClosed is returned by a Stream when the peer closed it normally.
var ErrStreamClosed = errors.New("chat: stream closed")

// Frame is one inbound unit read from a Stream. It is either a TextFrame or an
// OtherFrame.
type Frame interface {
	isFrame()
}

// TextFrame carries a text message.
type TextFrame string

// OtherFrame is any non-text data frame (binary payloads and the like).
type OtherFrame struct{}

func (TextFrame) isFrame()  {}
func (OtherFrame) isFrame() {}

// Stream is the inbound half of a client transport. Next blocks until a frame
// arrives, the stream ends, or ctx is cancelled.
type Stream interface {
	Next(ctx context.Context) (Frame, error)
}

// Sink is the outbound half of a client transport. Send hands text off without
// blocking on the remote peer and reports whether it was accepted. Send after
// Close must return false.
type Sink interface {
	Send(text string) bool
	Close()
}
