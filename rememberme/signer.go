// Package rememberme issues and consumes the signed, expiring persistent
// login cookie. The cookie value has the wire format
//
//	<payload>:<signature>
//
// where payload is the base64url-encoded JSON of {uid, exp} (colon-free by
// construction) and signature is the hex HMAC-SHA256 of the encoded payload
// under a server-held secret.
package rememberme

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

// CookieAttribute is the token attribute under which a freshly issued
// remember-me cookie rides to the response-writing layer.
const CookieAttribute = "gatehouse.remember_me_cookie"

// DefaultCookieName is used when the config does not name the cookie.
const DefaultCookieName = "REMEMBERME"

const defaultLifetime = 30 * 24 * time.Hour

var (
	// ErrMalformedCookie reports a structurally corrupt cookie value.
	ErrMalformedCookie = errors.New("malformed remember-me cookie")
	// ErrCookieTheft reports a signature mismatch: the payload was tampered
	// with or signed under a different secret. Never treated as benign.
	ErrCookieTheft = errors.New("remember-me cookie integrity violation")
	// ErrCookieExpired reports a well-formed cookie past its expiry.
	ErrCookieExpired = errors.New("remember-me cookie expired")
)

// Config tunes cookie issuance.
type Config struct {
	Secret     []byte
	Lifetime   time.Duration
	CookieName string
	Path       string
	Domain     string
}

// Cookie is an issued remember-me cookie plus its transport flags.
type Cookie struct {
	Name     string
	Value    string
	Expires  time.Time
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

// HTTPCookie renders the cookie for Set-Cookie.
func (c Cookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Expires:  c.Expires,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	}
}

type payload struct {
	UserID  string `json:"uid"`
	Expires int64  `json:"exp"`
}

// Signer creates and verifies remember-me cookie values.
type Signer struct {
	cfg Config
}

// NewSigner validates the config and returns a Signer. The secret is
// mandatory; lifetime, cookie name and path receive defaults.
func NewSigner(cfg Config) (*Signer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("remember-me requires a secret")
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Signer{cfg: cfg}, nil
}

// CookieName returns the configured cookie name.
func (s *Signer) CookieName() string { return s.cfg.CookieName }

// Create issues a signed cookie binding the user's stable identifier to an
// expiry timestamp. The secure flag follows the current request's scheme.
func (s *Signer) Create(u user.Record, secure bool) (Cookie, error) {
	if u.UserID == "" {
		return Cookie{}, errors.New("remember-me requires a stable user id")
	}
	expires := time.Now().Add(s.cfg.Lifetime)
	body, err := json.Marshal(payload{UserID: u.UserID, Expires: expires.Unix()})
	if err != nil {
		return Cookie{}, err
	}
	enc := base64.RawURLEncoding.EncodeToString(body)
	return Cookie{
		Name:     s.cfg.CookieName,
		Value:    enc + ":" + s.sign(enc),
		Expires:  expires,
		Path:     s.cfg.Path,
		Domain:   s.cfg.Domain,
		Secure:   secure,
		HTTPOnly: true,
	}, nil
}

// Consume parses and verifies a raw cookie value and loads the bound user.
// The signature is checked before any byte of the payload is trusted; the
// returned token carries the remember-me origin so downstream code can
// distinguish it from a full interactive login.
func (s *Signer) Consume(ctx context.Context, raw string, provider user.Provider) (*token.Token, error) {
	i := strings.LastIndexByte(raw, ':')
	if i <= 0 || i == len(raw)-1 {
		return nil, fmt.Errorf("%w: missing signature delimiter", ErrMalformedCookie)
	}
	enc, sig := raw[:i], raw[i+1:]

	if !hmac.Equal([]byte(s.sign(enc)), []byte(sig)) {
		return nil, ErrCookieTheft
	}

	body, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCookie, err)
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil || p.UserID == "" {
		return nil, fmt.Errorf("%w: bad payload", ErrMalformedCookie)
	}
	if time.Now().Unix() >= p.Expires {
		return nil, ErrCookieExpired
	}

	u, err := provider.LoadByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return token.New(u, "", token.OriginRememberMe), nil
}

func (s *Signer) sign(enc string) string {
	mac := hmac.New(sha256.New, s.cfg.Secret)
	mac.Write([]byte(enc))
	return hex.EncodeToString(mac.Sum(nil))
}
