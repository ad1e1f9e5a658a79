package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// Message is one event pushed to every client of a session
type Message struct {
	Event model.EventType
	Data  []byte
}

// Hub fans out messages for a single session
type Hub struct {
	pin       model.PIN
	clients   map[*Client]bool
	mu        sync.RWMutex
	logger    *slog.Logger
	createdAt time.Time

	// latest snapshot, replayed to clients as they register
	latest *Message

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	closeOnce  sync.Once
	stopWatch  context.CancelFunc
}

// NewHub creates a new Hub for a session
func NewHub(pin model.PIN, logger *slog.Logger) *Hub {
	return &Hub{
		pin:        pin,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("pin", string(pin))),
		createdAt:  time.Now(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 64),
		done:       make(chan struct{}),
		stopWatch:  func() {},
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("stream hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			if h.latest != nil {
				client.offer(*h.latest)
			}
			h.logger.Info("stream client registered",
				slog.String("player_key", string(client.playerKey)),
				slog.String("transport", client.transport),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("stream client unregistered",
					slog.String("player_key", string(client.playerKey)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			if message.Event == model.EventSnapshot {
				m := message
				h.latest = &m
			}
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				if !client.offer(message) {
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("stream message dropped for slow clients", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.flush()
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("stream hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// flush hands messages queued before Close to the clients, so a final
// session_closed is not lost
func (h *Hub) flush() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for {
		select {
		case message := <-h.broadcast:
			for client := range h.clients {
				client.offer(message)
			}
		default:
			return
		}
	}
}

// Register adds a client. It returns false if the hub has already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for all clients
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.logger.Warn("stream broadcast dropped - hub buffer full")
	}
}

// Close stops the hub and its store watch
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.stopWatch()
		close(h.done)
	})
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
