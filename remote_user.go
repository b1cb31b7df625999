package gatehouse

import (
	"context"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

const remoteUserPreviousAttribute = "gatehouse.remote_user.previous"

// RemoteUser authenticates requests pre-authenticated by a trusted
// upstream (reverse proxy, SSO gateway) that asserts the user identifier
// in a request header. It requires the previous token: a request already
// authenticated as the asserted user is left untouched.
type RemoteUser struct {
	header   string
	provider user.Provider
}

// NewRemoteUser builds the variant reading the given trusted header.
func NewRemoteUser(cfg RemoteUserConfig, provider user.Provider) *RemoteUser {
	if cfg.Header == "" {
		cfg.Header = "X-Remote-User"
	}
	return &RemoteUser{header: cfg.Header, provider: provider}
}

// NewRemoteUser builds the variant from the engine's provider.
func (e *Engine) NewRemoteUser() *RemoteUser {
	return NewRemoteUser(e.config.RemoteUser, e.userLookup)
}

func (a *RemoteUser) Name() string { return "remote_user" }

// SetToken stashes the previously established token on the request. The
// orchestrator calls it before Supports, on every attempt.
func (a *RemoteUser) SetToken(req *request.Request, previous *token.Token) {
	req.SetAttribute(remoteUserPreviousAttribute, previous)
}

// Supports accepts requests asserting an identity that differs from the
// previously established one.
func (a *RemoteUser) Supports(req *request.Request) bool {
	asserted := req.Header.Get(a.header)
	if asserted == "" {
		return false
	}
	if v, ok := req.Attribute(remoteUserPreviousAttribute); ok {
		if previous, ok := v.(*token.Token); ok && previous.Username() == asserted {
			return false
		}
	}
	return true
}

// Authenticate loads the asserted user and establishes a
// pre-authenticated token.
func (a *RemoteUser) Authenticate(ctx context.Context, req *request.Request, _ *credentials.Bag, firewallName string) (*token.Token, error) {
	asserted := req.Header.Get(a.header)
	if asserted == "" {
		return nil, ErrBadCredentials
	}
	u, err := a.provider.LoadByIdentifier(ctx, asserted)
	if err != nil {
		return nil, err
	}
	return token.New(u, firewallName, token.OriginPreAuthenticated), nil
}
