package http

import (
	"sync"

	"live-quiz-service/internal/app"
)

const clientBufferSize = 64

// client is one websocket connection. Events queue on send and are written by
// the connection's writer goroutine.
type client struct {
	id   string
	send chan app.Event

	closed bool // guarded by Hub.mu
}

func newClient(id string) *client {
	return &client{id: id, send: make(chan app.Event, clientBufferSize)}
}

// deliver never blocks: when the buffer is full the oldest queued event is
// dropped to make room.
func (c *client) deliver(evt app.Event) {
	select {
	case c.send <- evt:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- evt:
	default:
	}
}

type room struct {
	hosts   map[string]*client
	players map[string]*client
}

func (r *room) members(audience app.Audience) map[string]*client {
	if audience == app.AudienceHost {
		return r.hosts
	}
	return r.players
}

// Hub fans session events out to connected clients. It implements
// app.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

func (h *Hub) Register(gameID string, audience app.Audience, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[gameID]
	if !ok {
		r = &room{hosts: make(map[string]*client), players: make(map[string]*client)}
		h.rooms[gameID] = r
	}
	r.members(audience)[c.id] = c
}

// Leave removes the client from the room without closing its queue, used
// when a join attempt is rolled back.
func (h *Hub) Leave(gameID string, audience app.Audience, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(gameID, audience, c)
}

// Unregister removes the client and closes its queue. It is safe to call
// after CloseRoom or for a client that never entered a room.
func (h *Hub) Unregister(gameID string, audience app.Audience, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(gameID, audience, c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (h *Hub) removeLocked(gameID string, audience app.Audience, c *client) {
	r, ok := h.rooms[gameID]
	if !ok {
		return
	}
	members := r.members(audience)
	if members[c.id] != c {
		return
	}
	delete(members, c.id)
	if len(r.hosts) == 0 && len(r.players) == 0 {
		delete(h.rooms, gameID)
	}
}

// CloseRoom disconnects every client of the session.
func (h *Hub) CloseRoom(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[gameID]
	if !ok {
		return
	}
	for _, members := range []map[string]*client{r.hosts, r.players} {
		for _, c := range members {
			if !c.closed {
				c.closed = true
				close(c.send)
			}
		}
	}
	delete(h.rooms, gameID)
}

func (h *Hub) Publish(gameID string, audience app.Audience, evt app.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[gameID]
	if !ok {
		return
	}
	for _, c := range r.members(audience) {
		c.deliver(evt)
	}
}

func (h *Hub) SendToPlayer(gameID, playerID string, evt app.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[gameID]
	if !ok {
		return
	}
	if c, ok := r.players[playerID]; ok {
		c.deliver(evt)
	}
}

// Reply delivers an event to a single connection whether or not it has
// entered a room.
func (h *Hub) Reply(c *client, evt app.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !c.closed {
		c.deliver(evt)
	}
}

// Connections returns the number of live connections per audience.
func (h *Hub) Connections(gameID string) (hosts, players int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[gameID]
	if !ok {
		return 0, 0
	}
	return len(r.hosts), len(r.players)
}

var _ app.Broadcaster = (*Hub)(nil)
