package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable reports a persistence backend outage.
var ErrStoreUnavailable = errors.New("token store unavailable")

// Persistence stores tokens across requests under a session identifier.
type Persistence interface {
	Load(ctx context.Context, sessionID string) (*Token, error)
	Save(ctx context.Context, sessionID string, t *Token) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisPersistence keeps serialized tokens in Redis with a fixed TTL.
type RedisPersistence struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisPersistence builds a Redis-backed token persistence. An empty
// prefix defaults to "gatehouse:token:".
func NewRedisPersistence(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisPersistence {
	if prefix == "" {
		prefix = "gatehouse:token:"
	}
	return &RedisPersistence{client: client, prefix: prefix, ttl: ttl}
}

func (p *RedisPersistence) key(sessionID string) string {
	return p.prefix + sessionID
}

// Load restores the token stored for the session, nil when none exists.
func (p *RedisPersistence) Load(ctx context.Context, sessionID string) (*Token, error) {
	data, err := p.client.Get(ctx, p.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt token blob for session %s: %w", sessionID, err)
	}
	return &t, nil
}

// Save writes the token for the session; a nil token deletes the entry.
func (p *RedisPersistence) Save(ctx context.Context, sessionID string, t *Token) error {
	if t == nil {
		return p.Delete(ctx, sessionID)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.key(sessionID), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the session's token.
func (p *RedisPersistence) Delete(ctx context.Context, sessionID string) error {
	if err := p.client.Del(ctx, p.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
