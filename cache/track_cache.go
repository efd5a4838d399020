package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tipwave/db"
	"tipwave/model"

	"github.com/go-redis/redis/v8"
)

const (
	publicFeedKey = "tracks:public_feed"
	publicFeedTTL = 60 * time.Second
)

// TrackCache caches the public track feed. The feed is the hottest read
// path and tolerates short staleness; every write to a track invalidates it.
type TrackCache struct {
	client *redis.Client
}

// NewTrackCache creates a track cache over the shared Redis client.
func NewTrackCache() *TrackCache {
	return &TrackCache{client: db.RedisClient}
}

// GetPublicFeed returns the cached public feed, or (nil, nil) on a miss.
func (c *TrackCache) GetPublicFeed(ctx context.Context) ([]*model.Track, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, publicFeedKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var tracks []*model.Track
	if err := json.Unmarshal([]byte(data), &tracks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached feed: %w", err)
	}
	return tracks, nil
}

// SetPublicFeed stores the public feed with a short TTL.
func (c *TrackCache) SetPublicFeed(ctx context.Context, tracks []*model.Track) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to marshal feed: %w", err)
	}
	return c.client.Set(ctx, publicFeedKey, data, publicFeedTTL).Err()
}

// InvalidatePublicFeed drops the cached feed.
func (c *TrackCache) InvalidatePublicFeed(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Del(ctx, publicFeedKey).Err()
}
