// Package store persists the latest merged feed per match in Redis so
// restarted operator front-ends and sibling tools can read the last
// known state without replaying the backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/ticker"
)

// FeedStore writes feed snapshots to Redis. Writes are best-effort:
// a failing store never blocks the ticker.
type FeedStore struct {
	redisClient *redis.Client
}

// NewFeedStore connects to Redis and verifies the connection.
func NewFeedStore(redisAddr string) (*FeedStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis", zap.String("address", redisAddr))
	return &FeedStore{redisClient: client}, nil
}

// SaveSnapshot stores the merged feed and session status of one match.
func (s *FeedStore) SaveSnapshot(ctx context.Context, update ticker.Update) error {
	feedJSON, err := json.Marshal(update.Feed)
	if err != nil {
		return fmt.Errorf("failed to marshal feed: %w", err)
	}

	key := fmt.Sprintf("ticker:match:%d", update.MatchID)
	fields := map[string]interface{}{
		"feed":       string(feedJSON),
		"mode":       string(update.Mode),
		"pending":    update.Pending,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.redisClient.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to store feed snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot fields of one match, or nil
// when none exists.
func (s *FeedStore) LoadSnapshot(ctx context.Context, matchID int) (map[string]string, error) {
	key := fmt.Sprintf("ticker:match:%d", matchID)
	fields, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed snapshot: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// Close releases the Redis connection.
func (s *FeedStore) Close() error {
	return s.redisClient.Close()
}
