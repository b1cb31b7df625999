package rate

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	ends  time.Time
}

// MemoryLimiter is an in-process fixed-window limiter for single-node
// setups and tests. Increments serialize under one mutex.
type MemoryLimiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]*window
	now     func() time.Time
}

// NewMemory builds an in-process limiter.
func NewMemory(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Consume records one attempt for key within the current window.
func (l *MemoryLimiter) Consume(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.ends) {
		w = &window{ends: now.Add(l.cfg.Cooldown)}
		l.windows[key] = w
	}
	w.count++

	if w.count > l.cfg.MaxAttempts {
		return Decision{Allowed: false, RetryAfter: w.ends}, nil
	}
	return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts - w.count}, nil
}

// Reset clears the window for key.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}
