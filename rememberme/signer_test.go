package rememberme

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

type idProvider struct {
	users map[string]user.Record
}

func (p *idProvider) LoadByIdentifier(_ context.Context, identifier string) (user.Record, error) {
	for _, u := range p.users {
		if u.Identifier == identifier {
			return u, nil
		}
	}
	return user.Record{}, user.ErrNotFound
}

func (p *idProvider) LoadByID(_ context.Context, id string) (user.Record, error) {
	u, ok := p.users[id]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	return u, nil
}

func testSigner(t *testing.T) *Signer {
	t.Helper()

	s, err := NewSigner(Config{Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	return s
}

func alice() user.Record {
	return user.Record{UserID: "u-1", Identifier: "alice", Roles: []string{"ROLE_USER"}}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(Config{}); err == nil {
		t.Fatal("expected an error without a secret")
	}
}

func TestCreateConsumeRoundTrip(t *testing.T) {
	s := testSigner(t)
	provider := &idProvider{users: map[string]user.Record{"u-1": alice()}}

	cookie, err := s.Create(alice(), true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if cookie.Name != DefaultCookieName {
		t.Fatalf("name = %q", cookie.Name)
	}
	if !cookie.Secure || !cookie.HTTPOnly {
		t.Fatal("issued cookie must carry the transport flags")
	}
	if !strings.Contains(cookie.Value, ":") {
		t.Fatalf("value = %q", cookie.Value)
	}

	tok, err := s.Consume(context.Background(), cookie.Value, provider)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if tok.User.UserID != "u-1" {
		t.Fatalf("user = %+v", tok.User)
	}
	if tok.Origin != token.OriginRememberMe {
		t.Fatalf("origin = %q", tok.Origin)
	}
}

func TestConsumeDetectsTampering(t *testing.T) {
	s := testSigner(t)
	provider := &idProvider{users: map[string]user.Record{"u-1": alice()}}

	cookie, err := s.Create(alice(), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Flip the last signature character.
	value := cookie.Value
	last := value[len(value)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	tampered := value[:len(value)-1] + string(flipped)

	if _, err := s.Consume(context.Background(), tampered, provider); !errors.Is(err, ErrCookieTheft) {
		t.Fatalf("expected ErrCookieTheft, got %v", err)
	}

	// A payload signed under a different secret fails the same way.
	other, err := NewSigner(Config{Secret: []byte("other-secret")})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	foreign, err := other.Create(alice(), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Consume(context.Background(), foreign.Value, provider); !errors.Is(err, ErrCookieTheft) {
		t.Fatalf("expected ErrCookieTheft, got %v", err)
	}
}

func TestConsumeMalformedValues(t *testing.T) {
	s := testSigner(t)
	provider := &idProvider{users: map[string]user.Record{}}

	for _, raw := range []string{
		"",
		"nodelimiter",
		":leadingcolon",
		"trailingcolon:",
	} {
		if _, err := s.Consume(context.Background(), raw, provider); !errors.Is(err, ErrMalformedCookie) {
			t.Errorf("raw %q: expected ErrMalformedCookie, got %v", raw, err)
		}
	}
}

func TestConsumeExpired(t *testing.T) {
	s, err := NewSigner(Config{Secret: []byte("test-secret"), Lifetime: time.Nanosecond})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	provider := &idProvider{users: map[string]user.Record{"u-1": alice()}}

	cookie, err := s.Create(alice(), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Consume(context.Background(), cookie.Value, provider); !errors.Is(err, ErrCookieExpired) {
		t.Fatalf("expected ErrCookieExpired, got %v", err)
	}
}

func TestConsumeUnknownUser(t *testing.T) {
	s := testSigner(t)
	provider := &idProvider{users: map[string]user.Record{}}

	cookie, err := s.Create(alice(), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Consume(context.Background(), cookie.Value, provider); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected user.ErrNotFound, got %v", err)
	}
}

func TestCreateRequiresUserID(t *testing.T) {
	s := testSigner(t)
	if _, err := s.Create(user.Record{Identifier: "alice"}, false); err == nil {
		t.Fatal("expected an error without a stable user id")
	}
}

func TestHTTPCookie(t *testing.T) {
	s := testSigner(t)
	cookie, err := s.Create(alice(), true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	hc := cookie.HTTPCookie()
	if hc.Name != DefaultCookieName || hc.Value != cookie.Value {
		t.Fatalf("cookie = %+v", hc)
	}
	if !hc.HttpOnly || !hc.Secure || hc.SameSite != http.SameSiteLaxMode {
		t.Fatalf("flags = %+v", hc)
	}
	if hc.Path != "/" {
		t.Fatalf("path = %q", hc.Path)
	}
}
