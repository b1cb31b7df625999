package gatehouse

import (
	"context"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// Authenticator is one strategy in the chain. Name is the stable variant
// identity used for registration, only-check filtering, and metrics.
//
// Authenticate returns (nil, nil) to decline the request and let the chain
// continue; a non-nil token establishes the identity and stops the chain.
type Authenticator interface {
	Name() string
	Supports(req *request.Request) bool
	Authenticate(ctx context.Context, req *request.Request, creds *credentials.Bag, firewallName string) (*token.Token, error)
}

// FailureResponder is an optional capability: an authenticator that can
// produce a terminal response for its own failure. A non-nil response
// short-circuits the chain.
type FailureResponder interface {
	OnAuthenticationFailure(req *request.Request, err error) *request.Response
}

// TokenRequiring is an optional capability: the orchestrator injects the
// previously established token before calling Supports, on every attempt.
// The previous token is stashed on the request, never on the shared
// authenticator instance, so concurrent requests cannot race.
type TokenRequiring interface {
	SetToken(req *request.Request, previous *token.Token)
}
