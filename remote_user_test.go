package gatehouse

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

func headerRequest(header, value string) *request.Request {
	r := httptest.NewRequest("GET", "/", nil)
	if value != "" {
		r.Header.Set(header, value)
	}
	return request.Wrap(r)
}

func TestRemoteUserEstablishesToken(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Registry().Add(engine.NewRemoteUser())

	req := headerRequest("X-Remote-User", "alice")
	if _, err := engine.Authenticate(context.Background(), req, nil); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	tok := RequestStorage(req).Token()
	if tok.Username() != "alice" {
		t.Fatalf("expected alice, got %q", tok.Username())
	}
	if tok.Origin != token.OriginPreAuthenticated {
		t.Fatalf("origin = %q", tok.Origin)
	}
}

func TestRemoteUserWithoutHeader(t *testing.T) {
	engine := newTestEngine(t, nil)
	ru := engine.NewRemoteUser()

	if ru.Supports(headerRequest("X-Remote-User", "")) {
		t.Fatal("missing header must not be supported")
	}
}

func TestRemoteUserSameIdentitySkipped(t *testing.T) {
	engine := newTestEngine(t, nil)
	ru := engine.NewRemoteUser()

	req := headerRequest("X-Remote-User", "alice")
	previous := token.New(testProvider().users["alice"], "main", token.OriginPreAuthenticated)
	ru.SetToken(req, previous)
	if ru.Supports(req) {
		t.Fatal("matching previous identity must be left untouched")
	}

	// A different asserted identity re-authenticates.
	req = headerRequest("X-Remote-User", "bob")
	ru.SetToken(req, previous)
	if !ru.Supports(req) {
		t.Fatal("changed identity must re-authenticate")
	}
}

func TestRemoteUserUnknownIdentifierMasked(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Registry().Add(engine.NewRemoteUser())

	req := headerRequest("X-Remote-User", "nobody")
	_, err := engine.Authenticate(context.Background(), req, nil)
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected masked failure, got %v", err)
	}
	if errors.Is(err, user.ErrNotFound) {
		t.Fatal("mask must hide user-not-found")
	}
}
