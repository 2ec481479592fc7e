package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mugishapc/bvoice/internal/models"
	"github.com/mugishapc/bvoice/internal/observability"
)

// UserRoom names a user's private mailbox room.
func UserRoom(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// GroupRoom names a group's fan-out room.
func GroupRoom(groupID int) string {
	return fmt.Sprintf("group:%d", groupID)
}

// PresenceRecorder persists presence side effects of connect/disconnect.
type PresenceRecorder interface {
	UpdateLastSeen(ctx context.Context, userID int) error
}

// Backplane mirrors room events to a broker so a multi-instance deployment
// can fan out across processes. A nil backplane keeps delivery in-process.
type Backplane interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Hub maintains room membership and routes events to joined connections.
// Delivery is fire-and-forget: an empty room silently drops the event, and a
// connection whose send queue is full is evicted rather than blocking the
// routing path.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]bool
	clientRooms map[*Client]map[string]bool
	clients     map[*Client]bool
	userConns   map[int]int

	presence  PresenceRecorder
	backplane Backplane
}

// NewHub creates an empty hub. presence and backplane may be nil.
func NewHub(presence PresenceRecorder, backplane Backplane) *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		clientRooms: make(map[*Client]map[string]bool),
		clients:     make(map[*Client]bool),
		userConns:   make(map[int]int),
		presence:    presence,
		backplane:   backplane,
	}
}

// Register joins the client to its private mailbox room. The 0->1 transition
// of the user's connection count marks the user online and broadcasts a
// presence event to everyone; further devices connect silently.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.joinLocked(UserRoom(c.UserID), c)
	h.userConns[c.UserID]++
	first := h.userConns[c.UserID] == 1
	h.mu.Unlock()

	h.recordLastSeen(c.UserID)
	observability.IncWSActive()

	if first {
		h.BroadcastAll("user_status", models.StatusEvent{UserID: c.UserID, Online: true})
	}
}

// Unregister removes the client from every room it joined. Only when the
// user's last connection closes is the user marked offline.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range h.clientRooms[c] {
		h.leaveLocked(room, c)
	}
	delete(h.clientRooms, c)

	h.userConns[c.UserID]--
	last := h.userConns[c.UserID] == 0
	if last {
		delete(h.userConns, c.UserID)
	}
	h.mu.Unlock()

	c.Close()
	h.recordLastSeen(c.UserID)
	observability.DecWSActive()

	if last {
		h.BroadcastAll("user_status", models.StatusEvent{UserID: c.UserID, Online: false})
	}
}

// JoinRoom adds the client to an additional room (group rooms).
func (h *Hub) JoinRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	h.joinLocked(room, c)
}

// Publish delivers the event to every connection joined to room.
func (h *Hub) Publish(room, event string, payload any) {
	h.publish(room, event, payload, nil)
}

// PublishExcept delivers to all but the originating connection, used for
// typing indicators so the typist does not receive its own event.
func (h *Hub) PublishExcept(room, event string, payload any, except *Client) {
	h.publish(room, event, payload, except)
}

// BroadcastAll delivers the event to every connected client (presence).
func (h *Hub) BroadcastAll(event string, payload any) {
	data, err := json.Marshal(models.ServerEvent{Event: event, Data: payload})
	if err != nil {
		log.Printf("ws marshal error event=%s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, data, event)
	}
	h.mirror("broadcast", event, payload)
	observability.IncWSEvent(event)
}

// RoomSize reports how many connections are joined to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) publish(room, event string, payload any, except *Client) {
	data, err := json.Marshal(models.ServerEvent{Event: event, Data: payload})
	if err != nil {
		log.Printf("ws marshal error event=%s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, data, event)
	}
	h.mirror(room, event, payload)
	observability.IncWSEvent(event)
}

func (h *Hub) deliver(c *Client, data []byte, event string) {
	if c.trySend(data) {
		return
	}
	// Queue full or connection closed: evict so a slow consumer never stalls
	// the routing path. Unregister needs the write lock, so detach here.
	log.Printf("ws send queue full, dropping connection user=%d event=%s", c.UserID, event)
	go h.Unregister(c)
}

func (h *Hub) mirror(room, event string, payload any) {
	if h.backplane == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.backplane.Publish(ctx, "rooms."+room, models.ServerEvent{Event: event, Data: payload}); err != nil {
		log.Printf("backplane publish failed room=%s event=%s: %v", room, event, err)
	}
}

func (h *Hub) recordLastSeen(userID int) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.presence.UpdateLastSeen(ctx, userID); err != nil {
		log.Printf("update last_seen failed user=%d: %v", userID, err)
	}
}

func (h *Hub) joinLocked(room string, c *Client) {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	if _, ok := h.clientRooms[c]; !ok {
		h.clientRooms[c] = make(map[string]bool)
	}
	h.clientRooms[c][room] = true
}

func (h *Hub) leaveLocked(room string, c *Client) {
	if conns, ok := h.rooms[room]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
}
