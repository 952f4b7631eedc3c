// session/redis.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON values with a TTL matching their expiry.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig describes a Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix defaults to "caligben:session:".
	KeyPrefix string
	// DialTimeout bounds the startup ping (default 5s).
	DialTimeout time.Duration
}

// ConnectRedis dials Redis and pings it before returning.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("session: redis address required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "caligben:session:"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.KeyPrefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(id string) string { return s.keyPrefix + id }

func (s *RedisStore) Load(ctx context.Context, id string) (*SessionData, error) {
	var data SessionData
	if err := s.client.Get(ctx, s.key(id)).Scan(&data); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, ErrExpired
	}
	return &data, nil
}

// Save skips sessions that have already expired.
func (s *RedisStore) Save(ctx context.Context, data *SessionData) error {
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(data.ID), data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Ping reports whether Redis is reachable; used by the health check.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
