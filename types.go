package gatehouse

import (
	"context"
	"time"

	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// LimitDecision is the per-attempt outcome of the rate limiter. When the
// attempt is rejected, RetryAfter carries the timestamp at which the
// window reopens.
type LimitDecision struct {
	Accepted   bool
	RetryAfter time.Time
}

// RateLimiter is the login-attempt limiter contract the orchestrator
// consumes. Implementations own their counter store and must serialize
// increments at least per key.
type RateLimiter interface {
	Consume(ctx context.Context, req *request.Request) (LimitDecision, error)
	Reset(ctx context.Context, req *request.Request) error
}

// PasswordHasher verifies a plain credential against an encoded hash.
type PasswordHasher interface {
	Verify(encodedHash, password string) (bool, error)
}

// AccessDecider is the external access-decision collaborator behind
// Engine.IsGranted.
type AccessDecider interface {
	Decide(ctx context.Context, tok *token.Token, attributes []string, subject any) (bool, error)
}

// RoleDecider is the default AccessDecider: an attribute is granted when
// the token holds it as a role. Anonymous tokens are granted nothing.
type RoleDecider struct{}

// Decide grants when every requested attribute is among the token's roles.
func (RoleDecider) Decide(_ context.Context, tok *token.Token, attributes []string, _ any) (bool, error) {
	if !tok.HasIdentity() {
		return false, nil
	}
	for _, attr := range attributes {
		if !tok.HasRole(attr) {
			return false, nil
		}
	}
	return true, nil
}

// CaptchaVerifier validates a captcha response against its backend.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response, clientIP string) error
}

// storageAttribute binds the request's token storage to its attribute bag.
const storageAttribute = "gatehouse.token_storage"

// RequestStorage returns the token storage bound to the request, creating
// and binding a fresh one on first use.
func RequestStorage(req *request.Request) *token.Storage {
	if v, ok := req.Attribute(storageAttribute); ok {
		if s, ok := v.(*token.Storage); ok {
			return s
		}
	}
	s := token.NewStorage()
	req.SetAttribute(storageAttribute, s)
	return s
}

// BindStorage binds a prepared storage (session- or bearer-backed) to the
// request, replacing whatever was bound before.
func BindStorage(req *request.Request, s *token.Storage) {
	req.SetAttribute(storageAttribute, s)
}
