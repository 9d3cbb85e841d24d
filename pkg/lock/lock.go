// Package lock serialises resolutions of the same account. Redis backs the
// lock across replicas; Local covers single-process deployments and tests.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another caller holds the lock.
var ErrHeld = errors.New("lock is held by another caller")

// ReleaseFunc releases an acquired lock.
type ReleaseFunc func(ctx context.Context) error

// Redis acquires locks through redislock.
type Redis struct {
	client *redislock.Client
	prefix string
}

// NewRedis wraps a go-redis client.
func NewRedis(client redislock.RedisClient, prefix string) *Redis {
	return &Redis{client: redislock.New(client), prefix: prefix}
}

// Connect opens a Redis client and verifies it answers PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Acquire obtains the lock for key without retrying.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	lk, err := r.client.Obtain(ctx, r.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// Local is an in-process lock table with expiry.
type Local struct {
	mu    sync.Mutex
	held  map[string]localEntry
	seq   uint64
	clock func() time.Time
}

type localEntry struct {
	token   uint64
	expires time.Time
}

// NewLocal returns an empty lock table.
func NewLocal() *Local {
	return &Local{held: map[string]localEntry{}, clock: time.Now}
}

// Acquire obtains the lock for key without waiting.
func (l *Local) Acquire(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrHeld
	}
	l.seq++
	token := l.seq
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
