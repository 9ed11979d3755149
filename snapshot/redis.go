package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "poker:table:"

// RedisStore persists snapshots in Redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, snap TableSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+snap.TableID, data, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, tableID string) (TableSnapshot, error) {
	data, err := s.client.Get(ctx, keyPrefix+tableID).Bytes()
	if err == redis.Nil {
		return TableSnapshot{}, ErrNotFound
	}
	if err != nil {
		return TableSnapshot{}, err
	}

	var snap TableSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return TableSnapshot{}, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, tableID string) error {
	return s.client.Del(ctx, keyPrefix+tableID).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
