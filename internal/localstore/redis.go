package localstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var _ Slot = (*RedisSlot)(nil)

// RedisSlot keeps the snapshot as a JSON string under a single redis key.
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	if key == "" {
		key = DefaultKey
	}
	return &RedisSlot{client: client, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) (Snapshot, error) {
	cmd := s.client.Get(ctx, s.key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrSlotEmpty
		}
		return Snapshot{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return Decode([]byte(cmd.Val()))
}

func (s *RedisSlot) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// NewRedisClient builds a client for the slot and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
