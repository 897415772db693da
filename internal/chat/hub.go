package chat

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
)

// Hub tracks which clients are in which ride room on this instance.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
	logger  logrus.FieldLogger
}

// NewHub creates an empty hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		logger:  logger.WithField("component", "chat_hub"),
	}
}

// Subscribe adds c to the room of rideID. Joining twice is a no-op.
func (h *Hub) Subscribe(rideID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[rideID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[rideID] = room
	}
	room[c] = struct{}{}

	joined, ok := h.clients[c]
	if !ok {
		joined = make(map[string]struct{})
		h.clients[c] = joined
	}
	joined[rideID] = struct{}{}
}

// Leave removes c from a single room.
func (h *Hub) Leave(rideID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(rideID, c)
	if joined, ok := h.clients[c]; ok && len(joined) == 0 {
		delete(h.clients, c)
	}
}

// Unsubscribe removes c from every room it joined.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for rideID := range h.clients[c] {
		h.removeLocked(rideID, c)
	}
	delete(h.clients, c)
}

func (h *Hub) removeLocked(rideID string, c *Client) {
	if room, ok := h.rooms[rideID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, rideID)
		}
	}
	if joined, ok := h.clients[c]; ok {
		delete(joined, rideID)
	}
}

// Members returns how many clients are in the room of rideID.
func (h *Hub) Members(rideID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[rideID])
}

// Rooms returns the rides c currently listens to.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.clients[c]))
	for rideID := range h.clients[c] {
		rooms = append(rooms, rideID)
	}
	return rooms
}

// Broadcast queues msg as new_message for every client in its room. Clients
// whose queue is full miss the message.
func (h *Hub) Broadcast(msg *domain.Message) {
	payload, err := encode(EventNewMessage, msg)
	if err != nil {
		h.logger.WithError(err).WithField("message_id", msg.ID).Error("failed to encode chat message")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[msg.RideID]))
	for c := range h.rooms[msg.RideID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			c.logger.WithField("ride_id", msg.RideID).Warn("chat client queue full, message dropped")
		}
	}
}

// Publish delivers msg to this instance's room only.
func (h *Hub) Publish(_ context.Context, msg *domain.Message) error {
	h.Broadcast(msg)
	return nil
}
