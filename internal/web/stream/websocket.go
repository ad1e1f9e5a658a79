package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tworoomsboom/internal/model"
)

const pongWait = 2 * pingPeriod

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the JSON frame sent to WebSocket clients
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServeWS streams hub messages to one WebSocket client. The socket is read
// only to notice when the peer goes away.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, playerKey model.PlayerKey) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	client := NewClient(hub, playerKey, "ws")
	if !hub.Register(client) {
		closeWith(conn, websocket.CloseGoingAway, "session stream closed")
		return
	}
	defer hub.Unregister(client)

	gone := make(chan struct{})
	go readPump(conn, gone)

	_ = writeJSON(conn, Envelope{Event: model.EventConnected, Data: json.RawMessage(`{"status":"connected"}`)})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				closeWith(conn, websocket.CloseGoingAway, "session stream closed")
				return
			}
			if err := writeJSON(conn, Envelope{Event: message.Event, Data: message.Data}); err != nil {
				return
			}
			if message.Event == model.EventSessionClosed {
				closeWith(conn, websocket.CloseNormalClosure, "session finished")
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-gone:
			return
		}
	}
}

func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
