package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

const redisKeyPrefix = "buscador:session:"

// RedisConfig holds connection parameters for the Redis session store.
type RedisConfig struct {
	Addrs    []string
	Password string
}

// RedisStore keeps sessions in Redis as JSON strings with a key TTL, so
// sessions survive restarts and are shared between instances.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore connects via rueidis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(c rueidis.Client) *RedisStore {
	return &RedisStore{client: c}
}

// Get loads and decodes the session.
func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	cmd := s.client.B().Get().Key(redisKeyPrefix + id).Build()
	raw, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &d, nil
}

// Save encodes d and sets it with an expiry of ttl.
func (s *RedisStore) Save(ctx context.Context, id string, d *Data, ttl time.Duration) error {
	c := *d
	if ttl > 0 {
		c.ExpiresAt = time.Now().Add(ttl)
	} else {
		ttl = 24 * time.Hour
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	cmd := s.client.B().Set().Key(redisKeyPrefix + id).Value(string(raw)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	cmd := s.client.B().Del().Key(redisKeyPrefix + id).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}
