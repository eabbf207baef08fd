package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count    int64
	expireAt time.Time
}

// MemoryLimiter keeps counters in process memory with lazy expiry. Used for
// redis-less deployments; limits reset on restart and are per replica.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	return l.get(ipKey(ip, purpose)) >= ipLimit, nil
}

func (l *MemoryLimiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	l.incr(ipKey(ip, purpose), ipWindow)
	return nil
}

func (l *MemoryLimiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	return l.get(emailKey(email)) > 0, nil
}

func (l *MemoryLimiter) SetEmailCooldown(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows[emailKey(email)] = window{count: 1, expireAt: l.now().Add(emailCooldown)}
	return nil
}

func (l *MemoryLimiter) get(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return 0
	}
	if l.now().After(w.expireAt) {
		delete(l.windows, key)
		return 0
	}
	return w.count
}

// incr bumps the counter, starting a fresh window when the old one lapsed.
// Matches the Redis behavior of refreshing the TTL on every request.
func (l *MemoryLimiter) incr(key string, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expireAt) {
		w = window{}
	}
	w.count++
	w.expireAt = l.now().Add(ttl)
	l.windows[key] = w
}
