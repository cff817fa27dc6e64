package realtimesvc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/stationhq/firewatch/core"
)

// Hub fans events out to connected sockets. Delivery is best-effort: a client
// whose buffer is full is dropped rather than blocking the emitter.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	logger core.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	users   map[int]map[*Client]bool // userID -> sessions
	rooms   map[int]map[*Client]bool // conversationID -> subscribed sessions
}

var _ core.Broadcaster = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
		clients:    make(map[*Client]bool),
		users:      make(map[int]map[*Client]bool),
		rooms:      make(map[int]map[*Client]bool),
	}
}

// NewClient wraps an upgraded connection; the caller starts its pumps.
func (h *Hub) NewClient(conn *websocket.Conn, userID int, isAdmin bool) *Client {
	return newClient(h, conn, userID, isAdmin)
}

// Run processes registrations until the registration channels close.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, ok := h.users[client.userID]; !ok {
		h.users[client.userID] = make(map[*Client]bool)
	}
	h.users[client.userID][client] = true
	h.logger.Debug(fmt.Sprintf("socket connected: user=%d admin=%t", client.userID, client.isAdmin))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if sessions, ok := h.users[client.userID]; ok {
		delete(sessions, client)
		if len(sessions) == 0 {
			delete(h.users, client.userID)
		}
	}
	for id, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	h.logger.Debug(fmt.Sprintf("socket disconnected: user=%d", client.userID))
}

func (h *Hub) subscribe(client *Client, conversationID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true
}

func (h *Hub) unsubscribe(client *Client, conversationID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

func (h *Hub) EmitToConversation(conversationID int, event string, payload interface{}) {
	data, ok := h.marshal(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[conversationID] {
		h.push(client, data)
	}
}

func (h *Hub) EmitToUser(userID int, event string, payload interface{}) {
	data, ok := h.marshal(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.users[userID] {
		h.push(client, data)
	}
}

func (h *Hub) EmitToAdmins(event string, payload interface{}) {
	data, ok := h.marshal(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.isAdmin {
			h.push(client, data)
		}
	}
}

func (h *Hub) EmitAll(event string, payload interface{}) {
	data, ok := h.marshal(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.push(client, data)
	}
}

func (h *Hub) IsSubscribed(userID, conversationID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[conversationID] {
		if client.userID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) marshal(event string, payload interface{}) ([]byte, bool) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error(fmt.Sprintf("marshaling %s payload: %v", event, err), err)
			return nil, false
		}
	}
	data, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		h.logger.Error(fmt.Sprintf("marshaling %s envelope: %v", event, err), err)
		return nil, false
	}
	return data, true
}

// push must run under h.mu; a full send buffer evicts the client.
func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		delete(h.clients, client)
		close(client.send)
		if sessions, ok := h.users[client.userID]; ok {
			delete(sessions, client)
			if len(sessions) == 0 {
				delete(h.users, client.userID)
			}
		}
		for id, room := range h.rooms {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, id)
			}
		}
	}
}
