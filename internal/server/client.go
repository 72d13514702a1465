// Package server manages individual WebSocket clients, handling the read side
// as a chat.Stream, the write pump behind a chat.Sink, and lifecycle control
// for each connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

// Client represents a WebSocket client connection in the chat system.
// It is both the chat.Stream the session reads from and the chat.Sink other
// sessions deliver to. Deliveries are queued on a buffered channel drained by
// writePump, so a slow peer never blocks the sender.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	addr   string
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	closed   bool
	kickOnce sync.Once
}

// NewClient creates a new Client instance with the provided WebSocket
// connection and client address. The send channel is buffered to
// cfg.SendBufferSize messages.
func NewClient(conn *websocket.Conn, cfg Config, addr string, logger *zap.Logger) *Client {
	cfg = sanitizeConfig(cfg)
	if logger == nil {
		logger = zap.NewNop()
	}
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		addr:   addr,
		cfg:    cfg,
		logger: logger.With(zap.String("remote_addr", addr)),
	}
}

// GetSendChan returns the client's send channel for reading outgoing messages.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Send queues text for delivery without blocking. A client whose buffer is
// full is disconnected, which tears its session down.
func (c *Client) Send(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- []byte(text):
		return true
	default:
		c.logger.Warn("Send buffer full; disconnecting client", zap.Int("buffer", cap(c.send)))
		c.kick()
		return false
	}
}

// Close stops accepting deliveries. writePump sends a close frame once the
// queue drains.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Next blocks for the next data frame from the peer.
func (c *Client) Next(ctx context.Context) (chat.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, c.handleReadError(err)
	}
	return toFrame(messageType, data), nil
}

// kick drops the underlying connection so the pending read fails.
func (c *Client) kick() {
	c.kickOnce.Do(func() {
		if c.conn != nil {
			c.closeConnection()
		}
	})
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Warn("Error setting initial read deadline", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
			c.logger.Warn("Error setting read deadline in pong handler", zap.Error(err))
		}
		return nil
	})
}

// handleReadError logs the read failure and maps it onto the chat error
// taxonomy. Peer-initiated closes become chat.ErrStreamClosed.
func (c *Client) handleReadError(err error) error {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.logger.Info("Message exceeded maximum size", zap.Int64("limit", c.cfg.MaxMessageSize))
		return fmt.Errorf("read: %w", err)
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) {
		c.logger.Debug("Client disconnected", zap.Error(err))
		return fmt.Errorf("%w: %v", chat.ErrStreamClosed, err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || isExpectedCloseError(err) {
		c.logger.Debug("Client connection closed", zap.Error(err))
		return fmt.Errorf("%w: %v", chat.ErrStreamClosed, err)
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.logger.Warn("Unexpected WebSocket close", zap.Error(err))
		return fmt.Errorf("read: %w", err)
	}

	c.logger.Warn("WebSocket read error", zap.Error(err))
	return fmt.Errorf("read: %w", err)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		// Only log unexpected connection close errors
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error closing connection", zap.Error(err))
		}
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		c.logger.Warn("Error setting write deadline", zap.Error(err))
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Debug("Error writing close message", zap.Error(err))
		}
	}
	return false
}

// writeTextMessage writes one chat line as its own text frame.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing message", zap.Error(err))
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		c.logger.Warn("Error setting write deadline for ping", zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug("Error writing ping message", zap.Error(err))
		return false
	}
	return true
}
