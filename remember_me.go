package gatehouse

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/rememberme"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

// RememberMe re-authenticates returning visitors from the signed long
// lived cookie. Expired cookies and vanished users are benign: the
// visitor simply falls through to the interactive flow. Tampered
// cookies are not.
type RememberMe struct {
	signer   *rememberme.Signer
	provider user.Provider
	logger   *slog.Logger
}

// NewRememberMe builds the variant around an existing signer.
func NewRememberMe(signer *rememberme.Signer, provider user.Provider, logger *slog.Logger) *RememberMe {
	if logger == nil {
		logger = slog.Default()
	}
	return &RememberMe{signer: signer, provider: provider, logger: logger}
}

// NewRememberMe builds the variant from the engine's signer and
// provider. It returns nil when remember-me is not configured.
func (e *Engine) NewRememberMe() *RememberMe {
	if e.signer == nil {
		return nil
	}
	return NewRememberMe(e.signer, e.userLookup, e.logger)
}

func (a *RememberMe) Name() string { return "remember_me" }

// Supports accepts GET requests carrying the cookie when no token has
// been established yet. Peek is deliberate: probing must not trigger a
// lazy session load.
func (a *RememberMe) Supports(req *request.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if storage := RequestStorage(req); storage != nil && storage.Peek() != nil {
		return false
	}
	_, err := req.Cookie(a.signer.CookieName())
	return err == nil
}

// Authenticate consumes the cookie. Benign failures are swallowed so the
// chain continues; theft and tampering propagate.
func (a *RememberMe) Authenticate(ctx context.Context, req *request.Request, _ *credentials.Bag, firewallName string) (*token.Token, error) {
	c, err := req.Cookie(a.signer.CookieName())
	if err != nil {
		return nil, nil
	}
	tok, err := a.signer.Consume(ctx, c.Value, a.provider)
	if err != nil {
		if errors.Is(err, rememberme.ErrCookieExpired) ||
			errors.Is(err, user.ErrNotFound) ||
			errors.Is(err, user.ErrUnsupported) {
			a.logger.Debug("remember-me cookie not honored", "reason", err)
			return nil, nil
		}
		return nil, err
	}
	tok.Firewall = firewallName
	return tok, nil
}
