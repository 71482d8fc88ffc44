package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType labels an outbound feed message.
type MessageType string

const (
	// Proof lifecycle
	MessageProofCreated       MessageType = "proof_created"
	MessageProofStatusChanged MessageType = "proof_status_changed"
	MessageProofTransferred   MessageType = "proof_transferred"

	// Identity lifecycle
	MessageInvitationIssued     MessageType = "invitation_issued"
	MessageIdentityActivated    MessageType = "identity_activated"
	MessageIdentityDeleted      MessageType = "identity_deleted"
	MessageNotificationFallback MessageType = "notification_fallback"

	// Presence on the admin feed
	MessageUserOnline  MessageType = "user_online"
	MessageUserOffline MessageType = "user_offline"

	// Connection control
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Message is the wire frame pushed to connected clients.
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client is one websocket connection. A user may hold several at once
// (multiple tabs); rooms are tracked per connection.
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool
	mu       sync.Mutex
	lastPing time.Time
}

// envelope is a queued delivery. Exactly one of room or userID is set; an
// empty room with an empty userID is never enqueued.
type envelope struct {
	room    string
	userID  string
	exclude string
	data    []byte
}

// Hub owns every live connection and fans deliveries out to rooms and users.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byUser  map[string]map[*Client]bool
	byRoom  map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		byRoom:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 512),
	}
}

// Run drives the hub until the process exits. Start it in its own goroutine.
func (h *Hub) Run() {
	log.Println("[Hub] Feed hub started")

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case client := <-h.register:
			h.attach(client)
		case client := <-h.unregister:
			h.detach(client)
		case env := <-h.outbound:
			h.deliver(env)
		case <-keepalive.C:
			h.pingAll()
		}
	}
}

func (h *Hub) attach(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[*Client]bool)
	}
	h.byUser[client.UserID][client] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Hub] ✅ Connected: user=%s conn=%s (%d live)", client.UserID, client.ID, total)
	h.BroadcastUserStatus(client.UserID, true)
}

func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)

	lastForUser := false
	if conns, ok := h.byUser[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.UserID)
			lastForUser = true
		}
	}
	for room := range client.Rooms {
		h.dropFromRoom(client, room)
	}
	close(client.Send)
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Hub] Disconnected: user=%s conn=%s (%d live)", client.UserID, client.ID, total)
	if lastForUser {
		h.BroadcastUserStatus(client.UserID, false)
	}
}

// dropFromRoom requires h.mu held.
func (h *Hub) dropFromRoom(client *Client, room string) {
	if conns, ok := h.byRoom[room]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byRoom, room)
		}
	}
}

func (h *Hub) deliver(env envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]bool
	if env.room != "" {
		targets = h.byRoom[env.room]
	} else {
		targets = h.byUser[env.userID]
	}

	for client := range targets {
		if env.exclude != "" && client.UserID == env.exclude {
			continue
		}
		h.enqueue(client, env.data)
	}
}

// enqueue drops the connection when its send buffer is full; a reader that
// slow is better reconnected than allowed to stall the feed.
func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		go func() { h.unregister <- client }()
	}
}

// post never blocks; the run loop itself publishes presence updates, so a
// blocking send here could deadlock it.
func (h *Hub) post(env envelope) {
	select {
	case h.outbound <- env:
	default:
		log.Println("[Hub] ⚠️ Outbound queue full, dropping message")
	}
}

func (h *Hub) pingAll() {
	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		h.enqueue(client, data)
	}
}

// JoinRoom subscribes a connection to a room feed.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.byRoom[room] == nil {
		h.byRoom[room] = make(map[*Client]bool)
	}
	h.byRoom[room][client] = true
	log.Printf("[Hub] user=%s joined %s", client.UserID, room)
}

// LeaveRoom unsubscribes a connection from a room feed.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	h.dropFromRoom(client, room)
	log.Printf("[Hub] user=%s left %s", client.UserID, room)
}

// SendToUser delivers to every connection the user currently holds.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[Hub] Marshal failed for %s: %v", msgType, err)
		return
	}
	h.post(envelope{userID: userID, data: data})
}

// SendToRoom delivers to every connection subscribed to the room, optionally
// excluding one user.
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[Hub] Marshal failed for %s: %v", msgType, err)
		return
	}
	h.post(envelope{room: room, exclude: excludeUserID, data: data})
}

// BroadcastUserStatus reports presence changes on the admin feed only;
// clients have no reason to see each other come and go.
func (h *Hub) BroadcastUserStatus(userID string, online bool) {
	msgType := MessageUserOffline
	if online {
		msgType = MessageUserOnline
	}
	h.SendToRoom(AdminFeedRoom, msgType, map[string]interface{}{
		"userId": userID,
		"online": online,
	}, "")
}

// IsUserOnline reports whether the user holds at least one live connection.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.byUser[userID]
	return ok
}

// GetConnectedClientsCount returns the number of live connections.
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
