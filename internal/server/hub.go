// Package server coordinates transport client lifecycles for the whisperchat
// WebSocket system via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

// Hub tracks every live WebSocket client, runs its pumps, and hands each one
// to the chat service. It owns no chat state itself; registries live in the
// chat.Service.
type Hub struct {
	service  *chat.Service
	cfg      Config
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients map[*Client]struct{}
	mutex   sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	closing bool
}

// NewHub creates a Hub serving service with the given configuration.
func NewHub(cfg Config, service *chat.Service, logger *zap.Logger) *Hub {
	cfg = sanitizeConfig(cfg)
	if logger == nil {
		logger = zap.NewNop()
	}
	if service == nil {
		service = chat.NewService(chat.WithLogger(logger))
	}
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		service: service,
		cfg:     cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		clients: make(map[*Client]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Service returns the chat service the hub feeds.
func (h *Hub) Service() *chat.Service {
	return h.service
}

// Config returns the sanitized configuration.
func (h *Hub) Config() Config {
	return h.cfg
}

// ClientCount returns the number of attached transport clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Attach starts the write pump and the chat session for client. It returns
// false, and closes the client, once shutdown has begun.
func (h *Hub) Attach(client *Client, mode chat.Mode) bool {
	if client == nil {
		h.logger.Warn("Received nil client registration; skipping")
		return false
	}

	h.mutex.Lock()
	if h.closing {
		h.mutex.Unlock()
		client.Close()
		client.kick()
		return false
	}
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.wg.Add(2)
	h.mutex.Unlock()

	traceID := uuid.NewString()
	h.logger.Info("Client registered",
		zap.String("remote_addr", client.addr),
		zap.String("trace_id", traceID),
		zap.Stringer("mode", mode),
		zap.Int("clients", clientCount))

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		defer h.detach(client)
		client.setupReadConnection()
		err := h.service.Serve(h.ctx, client, client, mode,
			zap.String("trace_id", traceID),
			zap.String("remote_addr", client.addr))
		if err != nil {
			h.logger.Debug("Session ended with error", zap.String("trace_id", traceID), zap.Error(err))
		}
	}()
	return true
}

func (h *Hub) detach(client *Client) {
	h.mutex.Lock()
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	client.Close()
	h.logger.Info("Client unregistered", zap.String("remote_addr", client.addr), zap.Int("clients", clientCount))
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.logger.Info("Shutting down all client connections...")

	h.mutex.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			client.closeConnection()
		}
	}

	h.logger.Info("Closed client connections", zap.Int("count", len(clients)))
}

// Shutdown closes every client and waits for all goroutines to complete,
// or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown...")

	h.cancel()
	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
