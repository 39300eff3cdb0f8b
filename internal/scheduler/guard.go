package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard lets a job key fire once. Acquire reports false when the key was
// already taken within ttl.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryGuard is a process-local guard.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.keys {
		if !now.Before(exp) {
			delete(g.keys, k)
		}
	}
	if _, taken := g.keys[key]; taken {
		return false, nil
	}
	g.keys[key] = now.Add(ttl)
	return true, nil
}

// RedisGuard shares the guard between processes with SET NX.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}
