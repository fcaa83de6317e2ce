package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okravchenko/tidechat-server/internal/store"
	"github.com/redis/go-redis/v9"
)

// PresenceStore implements store.PresenceStore on Redis. It is an optional
// backend for deployments that keep presence out of the document database.
type PresenceStore struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr string) (*PresenceStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &PresenceStore{client: client}, nil
}

// Close closes the underlying connection pool.
func (p *PresenceStore) Close() error {
	return p.client.Close()
}

func presenceKey(userID int64) string {
	return "presence:" + strconv.FormatInt(userID, 10)
}

// SetUserPresence records the user's presence. Last writer wins.
func (p *PresenceStore) SetUserPresence(ctx context.Context, userID int64, isOnline bool, lastSeenAt time.Time) error {
	err := p.client.HSet(ctx, presenceKey(userID), map[string]any{
		"is_online":    isOnline,
		"last_seen_at": lastSeenAt.UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("hset presence: %w", err)
	}
	return nil
}

// GetUserPresence retrieves the persisted presence record.
func (p *PresenceStore) GetUserPresence(ctx context.Context, userID int64) (*store.Presence, error) {
	fields, err := p.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("hgetall presence: %w", err)
	}
	if len(fields) == 0 {
		return nil, store.ErrNotFound
	}

	pr := &store.Presence{UserID: userID}
	pr.IsOnline, _ = strconv.ParseBool(fields["is_online"])
	if ts := fields["last_seen_at"]; ts != "" {
		pr.LastSeenAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return pr, nil
}
