// Package redis stores fetched source payloads in Redis so that several
// service replicas share one source cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "denuncia:"

// Store is a payload store backed by a Redis client.
type Store struct {
	client *goredis.Client
}

// Open connects to the Redis server at addr and verifies it responds.
func Open(ctx context.Context, addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStore wraps an existing client.
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (domain.Payload, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Payload{}, false, nil
	}
	if err != nil {
		return domain.Payload{}, false, fmt.Errorf("redis get: %w", err)
	}

	var p domain.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Payload{}, false, fmt.Errorf("decode cached payload: %w", err)
	}
	return p, true, nil
}

func (s *Store) Put(ctx context.Context, key string, p domain.Payload, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CheckReadiness pings the server.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
