package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	client *redis.Client
	prefix string
}

func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisSlot, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	s := NewRedisSlot(client, prefix)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return s, nil
}

func NewRedisSlot(client *redis.Client, prefix string) *RedisSlot {
	return &RedisSlot{client: client, prefix: prefix}
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		b, err = s.client.Get(ctx, s.prefix+key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (s *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.client.Set(ctx, s.prefix+key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSlot) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

func (s *RedisSlot) Close() error {
	return s.client.Close()
}
