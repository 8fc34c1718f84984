package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chesko21/tiktok-live-connector/internal/config"
)

// ErrNoSnapshot means no catalog snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no catalog snapshot")

// SnapshotStore persists the gift catalog across restarts so an
// upstream gift-list outage does not degrade gift metadata.
type SnapshotStore interface {
	Save(ctx context.Context, entries []Entry) error
	Restore(ctx context.Context) ([]Entry, error)
	Close() error
}

// RedisSnapshotStore is a Redis-backed SnapshotStore.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotStore connects to Redis and verifies the connection.
func NewRedisSnapshotStore(cfg config.CatalogConfig) (*RedisSnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSnapshotStore{
		client: client,
		key:    cfg.SnapshotKey,
		ttl:    cfg.SnapshotTTL,
	}, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Restore(ctx context.Context) ([]Entry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to restore catalog snapshot: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog snapshot: %w", err)
	}
	return entries, nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)
