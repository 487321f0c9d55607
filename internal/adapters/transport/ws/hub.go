package ws

import (
	"sync"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/observability"
)

// Hub tracks connected clients per session and implements domain.Transport.
// Delivery is fire-and-forget: a slow client gets dropped rather than
// blocking the sender.
type Hub struct {
	mu    sync.RWMutex
	rooms map[domain.SessionCode]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[domain.SessionCode]map[*client]struct{})}
}

// Broadcast delivers an event to every client connected to the session.
func (h *Hub) Broadcast(code domain.SessionCode, ev domain.ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		c.enqueue(ev)
	}
}

// SendPrivate delivers an event only to connections belonging to the named
// participant. Other participants in the room never see it.
func (h *Hub) SendPrivate(code domain.SessionCode, participant string, ev domain.ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		if c.name == participant {
			c.enqueue(ev)
		}
	}
}

func (h *Hub) register(code domain.SessionCode, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[code]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[code] = room
	}
	room[c] = struct{}{}
	observability.Logger().Info("client connected",
		"session_code", code, "participant", c.name, "room_size", len(room))
}

func (h *Hub) unregister(code domain.SessionCode, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[code]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
	close(c.send)
}
