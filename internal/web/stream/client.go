package stream

import (
	"bytes"
	"net/http"
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 16
)

// Client is one connected subscriber, over SSE or WebSocket
type Client struct {
	hub         *Hub
	playerKey   model.PlayerKey
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a new client for a hub
func NewClient(hub *Hub, playerKey model.PlayerKey, transport string) *Client {
	return &Client{
		hub:         hub,
		playerKey:   playerKey,
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// offer queues a message without blocking the hub. When the buffer is full
// the oldest pending message is dropped, so snapshots stay current.
func (c *Client) offer(m Message) bool {
	select {
	case c.send <- m:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

// ServeSSE streams hub messages to one HTTP client as server-sent events
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, playerKey model.PlayerKey) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := NewClient(hub, playerKey, "sse")
	if !hub.Register(client) {
		http.Error(w, "Session stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no")

	_, _ = w.Write(formatSSE(model.EventConnected, []byte(`{"status":"connected"}`)))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(formatSSE(message.Event, message.Data)); err != nil {
				return
			}
			flusher.Flush()
			if message.Event == model.EventSessionClosed {
				return
			}

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSE writes one event, prefixing every data line with "data: "
func formatSSE(event model.EventType, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString("event: ")
	b.WriteString(string(event))
	b.WriteByte('\n')

	data = bytes.ReplaceAll(data, []byte("\r"), nil)
	for _, line := range bytes.Split(bytes.TrimSuffix(data, []byte("\n")), []byte("\n")) {
		b.WriteString("data: ")
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.Bytes()
}
