package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatehouse-auth/gatehouse/user"
)

// ErrTokenInvalid reports a bearer token that failed parsing or validation.
var ErrTokenInvalid = errors.New("invalid session token")

// JWTCodec encodes tokens as HS256-signed JWTs for stateless transport
// between requests.
type JWTCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTCodec builds a codec. The secret is required; ttl bounds the
// encoded token's validity.
func NewJWTCodec(secret []byte, issuer string, ttl time.Duration) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt codec requires a secret")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTCodec{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Encode signs the token's identity and granted roles into a compact JWT.
// Secret material (credentials attribute, password hash) is never encoded.
func (c *JWTCodec) Encode(t *Token) (string, error) {
	if t == nil {
		return "", errors.New("nil token")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":      t.ID,
		"sub":      t.User.UserID,
		"username": t.User.Identifier,
		"roles":    t.Roles,
		"origin":   string(t.Origin),
		"iat":      now.Unix(),
		"exp":      now.Add(c.ttl).Unix(),
	}
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}
	if t.Firewall != "" {
		claims["firewall"] = t.Firewall
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode parses and validates a compact JWT back into a Token.
func (c *JWTCodec) Decode(raw string) (*Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	t := &Token{
		ID: stringClaim(claims, "jti"),
		User: user.Record{
			UserID:     stringClaim(claims, "sub"),
			Identifier: stringClaim(claims, "username"),
		},
		Firewall: stringClaim(claims, "firewall"),
		Origin:   Origin(stringClaim(claims, "origin")),
		Erased:   true,
	}
	if t.User.UserID == "" {
		return nil, ErrTokenInvalid
	}
	if raw, ok := claims["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				t.Roles = append(t.Roles, s)
			}
		}
	}
	t.User.Roles = append([]string(nil), t.Roles...)
	return t, nil
}

// NewJWTStorage returns a Storage whose initializer decodes the given raw
// bearer token. Decode failures leave the storage empty and are logged at
// debug level; a missing token is not an error.
func NewJWTStorage(codec *JWTCodec, raw string, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	s := NewStorage()
	s.SetInitializer(func() {
		if raw == "" {
			return
		}
		t, err := codec.Decode(raw)
		if err != nil {
			logger.Debug("bearer token rejected", "error", err)
			return
		}
		s.setLoaded(t)
	})
	return s
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
