// Package server coordinates client registration, session wiring, and
// connection cleanup for the chat WebSocket system via the Hub type.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// ErrHubClosed is returned by Register once shutdown has started.
var ErrHubClosed = errors.New("hub is shut down")

// Hub manages all WebSocket client connections and owns the chat state they
// share. Each registered client is bound to a chat session and served by its
// own read and write pumps.
type Hub struct {
	chat    *chat.Hub
	cfg     Config
	logger  *slog.Logger
	clients map[*Client]struct{}
	mutex   sync.RWMutex
	wg      sync.WaitGroup
	closed  bool
}

// NewHub creates a Hub whose room policy comes from cfg.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	cfg = cfg.Sanitize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		chat: chat.NewHub(
			chat.WithLogger(logger),
			chat.WithHistorySize(cfg.HistorySize),
			chat.WithReclaimEmptyRooms(cfg.ReclaimEmptyRooms),
			chat.WithMaxAvatarSize(cfg.MaxAvatarSize),
		),
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Chat returns the room and session state manager.
func (h *Hub) Chat() *chat.Hub {
	return h.chat
}

// Register binds client to a new chat session and launches its pumps.
func (h *Hub) Register(client *Client) error {
	if client == nil {
		return errors.New("nil client")
	}

	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return ErrHubClosed
	}
	client.session = h.chat.Connect(client)
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.wg.Add(2)
	h.mutex.Unlock()

	client.logger.Info("client registered", "clients", clientCount)

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return nil
}

func (h *Hub) unregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if ok {
		client.logger.Info("client unregistered", "clients", clientCount)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client and waits up to timeout for their pumps to
// finish. See ShutdownContext.
func (h *Hub) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.ShutdownContext(ctx)
}

// ShutdownContext stops accepting clients, closes the live ones and waits
// for their pumps until ctx is done. Sessions are disconnected once every
// pump has exited.
func (h *Hub) ShutdownContext(ctx context.Context) error {
	h.logger.Info("initiating hub shutdown")

	h.mutex.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		client.close()
	}
	h.logger.Info("closed client connections", "count", len(clients))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		h.chat.DisconnectAll()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.logger.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return ctx.Err()
	}
}
