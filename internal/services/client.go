package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound buffer per connection.
	sendBufferSize = 16
)

// Client is one websocket connection known to the hub. Each connection gets
// a uuid for log correlation.
type Client struct {
	ID   string
	hub  *WebSocketService
	conn *websocket.Conn

	send   chan ServerMessage
	closed bool // owned by the hub's Run loop
}

// NewClient wraps an upgraded connection. The caller must register it with
// the hub and start Serve.
func NewClient(hub *WebSocketService, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan ServerMessage, sendBufferSize),
	}
}

// Serve starts the write pump and runs the read pump until the connection
// closes, then unregisters the client.
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

// enqueue queues an outbound message without blocking the hub. A client that
// cannot keep up with its buffer is dropped rather than stalling the room.
// Called only from the hub's Run loop.
func (c *Client) enqueue(msg ServerMessage) {
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.hub.logger.Warn("send buffer full, dropping client", "conn", c.ID)
		c.hub.removeClient(c)
	}
}

// closeSend is idempotent. Called only from the hub's Run loop.
func (c *Client) closeSend() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump relays inbound frames to the hub. One goroutine per connection;
// messages from a single connection are dispatched in order.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("read error", "conn", c.ID, "err", err)
			}
			return
		}
		c.hub.dispatch(c, raw)
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
