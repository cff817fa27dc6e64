package realtimesvc

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1024
)

// Envelope is the wire frame: an event name plus its JSON payload. Inbound
// frames use the same shape; only the room commands are accepted.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type roomCommand struct {
	ConversationID int `json:"conversationId"`
}

// Client is one websocket session. A user may hold several at once, one per
// tab or device; each tracks its own conversation-room subscriptions.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  int
	isAdmin bool

	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID int, isAdmin bool) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		userID:  userID,
		isAdmin: isAdmin,
		send:    make(chan []byte, 128),
	}
}

// ReadPump consumes inbound frames until the peer goes away. Room joins and
// leaves are the only commands clients may send; everything else rides the
// REST API.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		var cmd roomCommand
		switch env.Event {
		case "conversation:join":
			if err := json.Unmarshal(env.Payload, &cmd); err == nil {
				c.hub.subscribe(c, cmd.ConversationID)
			}
		case "conversation:leave":
			if err := json.Unmarshal(env.Payload, &cmd); err == nil {
				c.hub.unsubscribe(c, cmd.ConversationID)
			}
		}
	}
}

// WritePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
