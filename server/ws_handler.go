package server

import (
	"net/http"

	"tipwave/cache"
	"tipwave/notify"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades notification connections and hands them to the hub.
type WSHandler struct {
	hub      *notify.Hub
	presence *cache.PresenceCache
	log      *zap.Logger
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(hub *notify.Hub, presence *cache.PresenceCache, log *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, presence: presence, log: log}
}

// NotificationsHandler accepts a WebSocket session for the given user.
// The client may then subscribe to artist rooms over the socket.
func (h *WSHandler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := notify.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(r.Context(), h.presence, h.log)
}
