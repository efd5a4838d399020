package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tipwave/cache"
	"tipwave/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub is the registry of live notification connections. It supports two
// independent addressing schemes: per-user sessions (one user may hold
// several) and artist broadcast rooms (any user may subscribe to any
// artist's room). Delivery is fire-and-forget; a slow client's message
// is dropped rather than blocking the hub.
type Hub struct {
	// user ID -> connected sessions
	userSessions map[string]map[*Client]bool

	// artist ID -> subscribed sessions
	artistRooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	presence *cache.PresenceCache
	log      *zap.Logger

	done chan struct{}
}

// NewHub creates a hub. presence may be nil when Redis is not available.
func NewHub(presence *cache.PresenceCache, log *zap.Logger) *Hub {
	return &Hub{
		userSessions: make(map[string]map[*Client]bool),
		artistRooms:  make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		presence:     presence,
		log:          log,
		done:         make(chan struct{}),
	}
}

// Run drives the register/unregister loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts the hub down and closes every client send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister queues a client for removal.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.userSessions[client.UserID] == nil {
		h.userSessions[client.UserID] = make(map[*Client]bool)
	}
	h.userSessions[client.UserID][client] = true
	h.mu.Unlock()

	if h.presence != nil {
		ctx := context.Background()
		if err := h.presence.UpdateUserPresence(ctx, client.UserID); err != nil {
			h.log.Warn("failed to update user presence on register",
				zap.Error(err),
				zap.String("user", client.UserID))
		}
	}

	h.log.Info("notification client registered", zap.String("user", client.UserID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if sessions, ok := h.userSessions[client.UserID]; ok {
		if sessions[client] {
			delete(sessions, client)
			removed = true
			if len(sessions) == 0 {
				delete(h.userSessions, client.UserID)
			}
		}
	}
	for artistID := range client.rooms {
		if room, ok := h.artistRooms[artistID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.artistRooms, artistID)
			}
		}
	}
	if removed {
		close(client.Send)
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	if h.presence != nil {
		ctx := context.Background()
		if err := h.presence.RemoveUserPresence(ctx, client.UserID); err != nil {
			h.log.Warn("failed to remove user presence on unregister",
				zap.Error(err),
				zap.String("user", client.UserID))
		}
		for artistID := range client.rooms {
			if err := h.presence.RemoveRoomSubscriber(ctx, artistID, client.UserID); err != nil {
				h.log.Warn("failed to remove room subscriber",
					zap.Error(err),
					zap.String("artist", artistID),
					zap.String("user", client.UserID))
			}
		}
	}

	h.log.Info("notification client unregistered", zap.String("user", client.UserID))
}

// Subscribe adds a client to an artist's broadcast room.
func (h *Hub) Subscribe(client *Client, artistID string) {
	h.mu.Lock()
	if h.artistRooms[artistID] == nil {
		h.artistRooms[artistID] = make(map[*Client]bool)
	}
	h.artistRooms[artistID][client] = true
	client.rooms[artistID] = true
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.AddRoomSubscriber(context.Background(), artistID, client.UserID); err != nil {
			h.log.Warn("failed to record room subscriber",
				zap.Error(err),
				zap.String("artist", artistID),
				zap.String("user", client.UserID))
		}
	}
}

// Unsubscribe removes a client from an artist's broadcast room.
func (h *Hub) Unsubscribe(client *Client, artistID string) {
	h.mu.Lock()
	if room, ok := h.artistRooms[artistID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.artistRooms, artistID)
		}
	}
	delete(client.rooms, artistID)
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.RemoveRoomSubscriber(context.Background(), artistID, client.UserID); err != nil {
			h.log.Warn("failed to remove room subscriber",
				zap.Error(err),
				zap.String("artist", artistID),
				zap.String("user", client.UserID))
		}
	}
}

// SendToUser delivers the event to every connected session of userID.
// No sessions, no delivery; nothing is queued.
func (h *Hub) SendToUser(userID string, n *model.Notification) {
	data, err := h.encode(n)
	if err != nil {
		h.log.Error("failed to encode notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.userSessions[userID]))
	for client := range h.userSessions[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.push(client, data)
	}
}

// SendToArtist delivers the event to every session subscribed to the
// artist's room. The artist's own direct sessions are a separate
// audience and are not implied here.
func (h *Hub) SendToArtist(artistID string, n *model.Notification) {
	data, err := h.encode(n)
	if err != nil {
		h.log.Error("failed to encode notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.artistRooms[artistID]))
	for client := range h.artistRooms[artistID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.push(client, data)
	}
}

// UserSessionCount returns the number of live sessions for a user.
func (h *Hub) UserSessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userSessions[userID])
}

// RoomSubscriberCount returns the number of sessions in an artist room.
func (h *Hub) RoomSubscriberCount(artistID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.artistRooms[artistID])
}

func (h *Hub) encode(n *model.Notification) ([]byte, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	return json.Marshal(n)
}

func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		// Send buffer full; the client is too slow to keep its session.
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sessions := range h.userSessions {
		for client := range sessions {
			close(client.Send)
		}
	}
	h.userSessions = make(map[string]map[*Client]bool)
	h.artistRooms = make(map[string]map[*Client]bool)
}
