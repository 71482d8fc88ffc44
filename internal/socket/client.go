package socket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 75 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	sendBufferSize = 256
)

// clientFrame is the only inbound shape the feed accepts: room subscription
// management and keepalives. All domain writes go through the HTTP API.
type clientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

// ReadPump consumes inbound frames until the connection drops, then detaches
// the client from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastPing = time.Now()
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Client] Read error for user %s: %v", c.UserID, err)
			}
			return
		}
		c.handleFrame(raw)
	}
}

// WritePump flushes the send buffer to the connection and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)
			// Drain whatever else is already buffered into the same frame.
			for i := len(c.Send); i > 0; i-- {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("[Client] Malformed frame from user %s: %v", c.UserID, err)
		return
	}

	switch frame.Action {
	case "subscribe":
		if frame.Room != "" {
			c.Hub.JoinRoom(c, frame.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "subscribed", "room": frame.Room})
		}
	case "unsubscribe":
		if frame.Room != "" {
			c.Hub.LeaveRoom(c, frame.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "unsubscribed", "room": frame.Room})
		}
	case "ping":
		c.lastPing = time.Now()
		c.reply(MessagePong, map[string]interface{}{"time": time.Now().Unix()})
	case "pong":
		c.lastPing = time.Now()
	default:
		log.Printf("[Client] Unknown action %q from user %s", frame.Action, c.UserID)
	}
}

// reply enqueues a frame for this connection only, dropping it if the buffer
// is full.
func (c *Client) reply(msgType MessageType, payload map[string]interface{}) {
	data, _ := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	select {
	case c.Send <- data:
	default:
		log.Printf("[Client] Send buffer full for user %s, dropping %s", c.UserID, msgType)
	}
}
