// Package token defines the authenticated identity token and its
// request-scoped storage, including the deferred-initializer mechanism used
// by lazy firewalls and the Redis and JWT persistence backends.
package token

import (
	"slices"

	"github.com/google/uuid"

	"github.com/gatehouse-auth/gatehouse/user"
)

// Origin distinguishes how a token was established.
type Origin string

const (
	// OriginInteractive marks tokens from a full interactive login.
	OriginInteractive Origin = "interactive"
	// OriginRememberMe marks tokens derived from a remember-me cookie.
	OriginRememberMe Origin = "remember_me"
	// OriginPreAuthenticated marks tokens derived from trusted upstream headers.
	OriginPreAuthenticated Origin = "pre_authenticated"
	// OriginAnonymous marks the null token substituted for access decisions.
	OriginAnonymous Origin = "anonymous"
)

// CredentialsAttribute is the token attribute holding the plain credential
// until it is erased post-authentication.
const CredentialsAttribute = "credentials"

// Token is the authenticated identity established by an authenticator on
// success. It is created once and then only mutated by the orchestrator
// (credential erasure) and success listeners (replacement).
type Token struct {
	ID         string         `json:"id"`
	User       user.Record    `json:"user"`
	Roles      []string       `json:"roles,omitempty"`
	Firewall   string         `json:"firewall,omitempty"`
	Origin     Origin         `json:"origin"`
	Erased     bool           `json:"erased"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// New builds a token for the given user record, tagged with the firewall
// that established it. Granted roles default to the user's roles.
func New(u user.Record, firewall string, origin Origin) *Token {
	return &Token{
		ID:       uuid.NewString(),
		User:     u,
		Roles:    slices.Clone(u.Roles),
		Firewall: firewall,
		Origin:   origin,
	}
}

// Anonymous returns a token with no identity, used when an access decision
// is requested and no token has been established.
func Anonymous() *Token {
	return &Token{ID: uuid.NewString(), Origin: OriginAnonymous}
}

// HasIdentity reports whether the token carries a resolved user.
func (t *Token) HasIdentity() bool {
	return t != nil && t.User.UserID != ""
}

// Username returns the identifier of the token's user, empty for anonymous.
func (t *Token) Username() string {
	if t == nil {
		return ""
	}
	return t.User.Identifier
}

// HasRole reports whether the token was granted the given role.
func (t *Token) HasRole(role string) bool {
	return t != nil && slices.Contains(t.Roles, role)
}

// Attribute returns a token attribute and whether it was set.
func (t *Token) Attribute(name string) (any, bool) {
	if t.Attributes == nil {
		return nil, false
	}
	v, ok := t.Attributes[name]
	return v, ok
}

// SetAttribute stores a token attribute.
func (t *Token) SetAttribute(name string, value any) {
	if t.Attributes == nil {
		t.Attributes = make(map[string]any)
	}
	t.Attributes[name] = value
}

// EraseCredentials removes secret material from the token: the credentials
// attribute and the user's password hash. Idempotent.
func (t *Token) EraseCredentials() {
	delete(t.Attributes, CredentialsAttribute)
	t.User.PasswordHash = ""
	t.Erased = true
}
