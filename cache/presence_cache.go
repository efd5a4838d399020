package cache

import (
	"context"
	"fmt"
	"time"

	"tipwave/db"

	"github.com/go-redis/redis/v8"
)

const (
	userPresenceKey = "presence:user:%s"   // String: heartbeat key per user
	artistRoomKey   = "presence:artist:%s" // Set: user IDs subscribed to an artist room
	presenceTTL     = 60 * time.Second
	roomTTL         = 24 * time.Hour
)

// PresenceCache tracks which users currently hold a live notification
// session and which artist rooms they subscribe to. Presence expires
// with the heartbeat TTL, so a crashed connection ages out on its own.
type PresenceCache struct {
	client *redis.Client
}

// NewPresenceCache creates a presence cache over the shared Redis client.
func NewPresenceCache() *PresenceCache {
	return &PresenceCache{client: db.RedisClient}
}

// UpdateUserPresence refreshes the heartbeat key for a connected user.
func (c *PresenceCache) UpdateUserPresence(ctx context.Context, userID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(userPresenceKey, userID)
	return c.client.Set(ctx, key, time.Now().UnixMilli(), presenceTTL).Err()
}

// RemoveUserPresence drops the heartbeat key for a disconnected user.
func (c *PresenceCache) RemoveUserPresence(ctx context.Context, userID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(userPresenceKey, userID)
	return c.client.Del(ctx, key).Err()
}

// IsUserOnline reports whether the user's heartbeat key is alive.
func (c *PresenceCache) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}

	n, err := c.client.Exists(ctx, fmt.Sprintf(userPresenceKey, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddRoomSubscriber records a user's subscription to an artist room.
func (c *PresenceCache) AddRoomSubscriber(ctx context.Context, artistID, userID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(artistRoomKey, artistID)
	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, roomTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveRoomSubscriber drops a user's subscription to an artist room.
func (c *PresenceCache) RemoveRoomSubscriber(ctx context.Context, artistID, userID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(artistRoomKey, artistID)
	return c.client.SRem(ctx, key, userID).Err()
}

// GetRoomSubscriberCount returns the number of users subscribed to an artist room.
func (c *PresenceCache) GetRoomSubscriberCount(ctx context.Context, artistID string) (int64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	return c.client.SCard(ctx, fmt.Sprintf(artistRoomKey, artistID)).Result()
}
