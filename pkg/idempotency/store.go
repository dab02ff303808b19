package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

// ErrInFlight means another request holding the same key has not finished yet.
var ErrInFlight = errors.New("idempotency: request in flight")

// Store remembers which result a client-supplied key produced.
//
// Reserve returns ("", nil) when the caller now owns the key, the stored result
// when the key already completed, or ErrInFlight.
type Store interface {
	Reserve(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client, prefix: "idem:", ttl: ttl}, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, pending, s.ttl).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", err
	}
	if v == pending {
		return "", ErrInFlight
	}
	return v, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, result string) error {
	return s.client.Set(ctx, s.prefix+key, result, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is a process-local Store for single-instance deployments and tests.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, data: make(map[string]memEntry)}
}

func (s *MemoryStore) Reserve(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.data[key]; ok && now.Before(e.expires) {
		if e.value == pending {
			return "", ErrInFlight
		}
		return e.value, nil
	}
	s.data[key] = memEntry{value: pending, expires: now.Add(s.ttl)}
	return "", nil
}

func (s *MemoryStore) Complete(_ context.Context, key, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memEntry{value: result, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
