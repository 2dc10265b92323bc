package jwt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRegistryUnavailable wraps backend failures of a revocation registry.
var ErrRegistryUnavailable = errors.New("revocation registry unavailable")

// RevocationRegistry tracks token identifiers that must be rejected before
// their natural expiry. Entries may be garbage-collected once the ttl they
// were stored with has passed.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocations is an in-process registry. Expired entries are swept
// on every mutation, bounding memory to the set of live revocations.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]int64
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		entries: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *MemoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, expiry := range r.entries {
		if expiry <= now.Unix() {
			delete(r.entries, id)
		}
	}
	r.entries[tokenID] = now.Add(ttl).Unix()
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.entries[tokenID]
	if !ok {
		return false, nil
	}
	if expiry <= r.now().Unix() {
		delete(r.entries, tokenID)
		return false, nil
	}
	return true, nil
}

// RedisRevocations is a shared-cache registry. The entry TTL delegates
// garbage collection to Redis key expiry.
type RedisRevocations struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisRevocations(redisClient redis.UniversalClient, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "arv"
	}
	return &RedisRevocations{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (r *RedisRevocations) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.redis.Set(ctx, r.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return n > 0, nil
}
