package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mugishapc/bvoice/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// EventHandler dispatches a decoded client event.
type EventHandler interface {
	Handle(c *Client, event models.ClientEvent)
}

// Client is one live websocket connection for an authenticated user. Outgoing
// frames go through a bounded send queue drained by writePump; the hub evicts
// the client instead of blocking when the queue is full.
type Client struct {
	UserID   int
	Username string

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient wraps a websocket connection with a send queue of queueSize.
func NewClient(conn *websocket.Conn, userID int, username string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, queueSize),
	}
}

// trySend enqueues a frame without blocking. Returns false when the queue is
// full or the client is closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// SendEvent marshals and enqueues a single event for this connection only.
func (c *Client) SendEvent(event string, payload any) {
	data, err := json.Marshal(models.ServerEvent{Event: event, Data: payload})
	if err != nil {
		log.Printf("ws marshal error event=%s: %v", event, err)
		return
	}
	c.trySend(data)
}

// Close marks the client closed and releases the writePump. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump decodes inbound frames and hands them to the event handler. It
// owns the connection's read side and unregisters the client on exit.
func (c *Client) readPump(hub *Hub, handler EventHandler) {
	defer func() {
		hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error user=%d: %v", c.UserID, err)
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.SendEvent("error", models.ErrorEvent{Message: "malformed event"})
			continue
		}
		handler.Handle(c, event)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("ws write error user=%d: %v", c.UserID, err)
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
