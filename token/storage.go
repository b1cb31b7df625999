package token

import (
	"context"
	"log/slog"
	"sync"
)

// Storage holds the current identity token for one request. A deferred
// initializer may be registered; it runs at most once, on the first token
// read that happens before a token has been explicitly set.
//
// Only the orchestrator and the lazy-firewall initializer write to a
// Storage; everything else reads.
type Storage struct {
	mu       sync.Mutex
	tok      *Token
	init     func()
	consumed bool
	onSet    func(*Token)
}

// NewStorage returns an empty request-scoped storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Token returns the current token, running a pending initializer first.
// The initializer is consumed before it runs, so probing the token from
// inside the initializer does not recurse.
func (s *Storage) Token() *Token {
	s.mu.Lock()
	if s.tok != nil || s.consumed || s.init == nil {
		t := s.tok
		s.mu.Unlock()
		return t
	}
	fn := s.init
	s.init = nil
	s.consumed = true
	s.mu.Unlock()

	fn()

	s.mu.Lock()
	t := s.tok
	s.mu.Unlock()
	return t
}

// Peek returns the current token without triggering a pending initializer.
func (s *Storage) Peek() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

// SetToken replaces the stored token. An explicit set cancels any pending
// initializer. Passing nil clears the token.
func (s *Storage) SetToken(t *Token) {
	s.mu.Lock()
	s.tok = t
	s.init = nil
	onSet := s.onSet
	s.mu.Unlock()

	if onSet != nil {
		onSet(t)
	}
}

// SetInitializer registers a deferred one-shot thunk invoked on the first
// token read if no token has been explicitly set yet. Registering a new
// initializer replaces an unconsumed one.
func (s *Storage) SetInitializer(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init = fn
	s.consumed = false
}

// setLoaded stores a token restored by a persistence backend without
// firing the onSet hook (the backend already holds this value).
func (s *Storage) setLoaded(t *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		s.tok = t
	}
}

// NewSessionStorage returns a Storage bound to a persistence backend: the
// token is loaded lazily from the backend on first read and every explicit
// set is written back under the given session ID.
func NewSessionStorage(ctx context.Context, p Persistence, sessionID string, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	s := NewStorage()
	s.onSet = func(t *Token) {
		if err := p.Save(ctx, sessionID, t); err != nil {
			logger.Error("token persistence save failed", "session_id", sessionID, "error", err)
		}
	}
	s.SetInitializer(func() {
		t, err := p.Load(ctx, sessionID)
		if err != nil {
			logger.Warn("token persistence load failed", "session_id", sessionID, "error", err)
			return
		}
		if t != nil {
			s.setLoaded(t)
		}
	})
	return s
}
