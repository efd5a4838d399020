package notify

import (
	"context"
	"encoding/json"
	"time"

	"tipwave/cache"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Inbound control message types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgPing        = "ping"
	msgPong        = "pong"
)

// controlMessage is what a connected client may send upstream: room
// subscription changes and heartbeats. Notifications only ever flow
// downstream.
type controlMessage struct {
	Type     string `json:"type"`
	ArtistID string `json:"artistId,omitempty"`
}

// Client is one WebSocket notification session.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string

	// Artist rooms this session subscribed to; owned by the hub's lock.
	rooms map[string]bool
}

// NewClient wraps an accepted WebSocket connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		UserID: userID,
		rooms:  make(map[string]bool),
	}
}

// ReadPump consumes control messages until the connection drops.
func (c *Client) ReadPump(ctx context.Context, presence *cache.PresenceCache, log *zap.Logger) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096) // 4KB
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn("websocket read error",
						zap.Error(err),
						zap.String("user", c.UserID))
				}
				return
			}

			var msg controlMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Warn("invalid control message",
					zap.Error(err),
					zap.String("user", c.UserID))
				continue
			}

			switch msg.Type {
			case msgPing:
				if presence != nil {
					if err := presence.UpdateUserPresence(ctx, c.UserID); err != nil {
						log.Warn("failed to update user presence",
							zap.Error(err),
							zap.String("user", c.UserID))
					}
				}
				if data, err := json.Marshal(controlMessage{Type: msgPong}); err == nil {
					select {
					case c.Send <- data:
					default:
					}
				}

			case msgSubscribe:
				if msg.ArtistID != "" {
					c.Hub.Subscribe(c, msg.ArtistID)
				}

			case msgUnsubscribe:
				if msg.ArtistID != "" {
					c.Hub.Unsubscribe(c, msg.ArtistID)
				}
			}
		}
	}
}

// WritePump flushes queued notifications and keeps the connection alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain the rest of the queue into the same frame batch.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
