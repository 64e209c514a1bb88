// Package locks serializes work per key, either inside one process or across
// processes through Redis.
package locks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("locks: lock not obtained")

// Locker acquires an exclusive lock on key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Local is an in-process keyed mutex.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local { return &Local{slots: map[string]*slot{}} }

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, s, true) }) }, nil
}

func (l *Local) release(key string, s *slot, held bool) {
	if held {
		<-s.ch
	}
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// RedisConfig tunes the distributed lock.
type RedisConfig struct {
	Prefix  string
	TTL     time.Duration
	Backoff time.Duration
	Retries int
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.Prefix == "" {
		out.Prefix = "lock:call:"
	}
	if out.TTL <= 0 {
		out.TTL = 30 * time.Second
	}
	if out.Backoff <= 0 {
		out.Backoff = 50 * time.Millisecond
	}
	if out.Retries <= 0 {
		out.Retries = 200
	}
	return out
}

// Redis takes a redislock lock per key. When Redis itself errors it degrades
// to the in-process lock so a single replica still serializes correctly.
type Redis struct {
	client   *redislock.Client
	cfg      RedisConfig
	fallback *Local
	log      *slog.Logger
}

func NewRedis(rdb redis.UniversalClient, cfg RedisConfig, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default()
	}
	return &Redis{
		client:   redislock.New(rdb),
		cfg:      cfg.withDefaults(),
		fallback: NewLocal(),
		log:      log,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := r.client.Obtain(ctx, r.cfg.Prefix+key, r.cfg.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.cfg.Backoff), r.cfg.Retries),
	})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, ErrNotObtained
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("redis lock unavailable; using in-process lock", "key", key, "error", err)
		return r.fallback.Lock(ctx, key)
	}

	return func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.Warn("redis lock release failed", "key", key, "error", err)
		}
	}, nil
}
