package gatehouse

import (
	"context"
	"net/http"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/rememberme"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

// FormLogin authenticates username/password credentials submitted through
// a login form. On success, when the remember-me parameter opts in and a
// signer is configured, the issued cookie rides on the token's attributes.
type FormLogin struct {
	cfg      FormLoginConfig
	provider user.Provider
	hasher   PasswordHasher
	signer   *rememberme.Signer
}

// NewFormLogin builds the variant. signer may be nil to disable
// remember-me issuance.
func NewFormLogin(cfg FormLoginConfig, provider user.Provider, hasher PasswordHasher, signer *rememberme.Signer) *FormLogin {
	if cfg.UsernameParameter == "" {
		cfg.UsernameParameter = "_username"
	}
	if cfg.PasswordParameter == "" {
		cfg.PasswordParameter = "_password"
	}
	if cfg.RememberMeParameter == "" {
		cfg.RememberMeParameter = "_remember_me"
	}
	return &FormLogin{cfg: cfg, provider: provider, hasher: hasher, signer: signer}
}

// NewFormLogin builds the variant from the engine's provider, hasher and
// remember-me signer.
func (e *Engine) NewFormLogin() *FormLogin {
	return NewFormLogin(e.config.FormLogin, e.userLookup, e.hasher, e.signer)
}

func (a *FormLogin) Name() string { return "form_login" }

// Supports accepts POST submissions carrying the username parameter.
func (a *FormLogin) Supports(req *request.Request) bool {
	if req.Method != http.MethodPost {
		return false
	}
	if req.FormValues().Has(a.cfg.UsernameParameter) {
		return true
	}
	body := req.JSONBody()
	_, ok := body[a.cfg.UsernameParameter]
	return ok
}

// Authenticate verifies the submitted credentials and establishes an
// interactive token.
func (a *FormLogin) Authenticate(ctx context.Context, req *request.Request, creds *credentials.Bag, firewallName string) (*token.Token, error) {
	username := creds.String(a.cfg.UsernameParameter)
	plain := creds.String(a.cfg.PasswordParameter)
	if username == "" || plain == "" {
		return nil, ErrBadCredentials
	}

	u, err := a.provider.LoadByIdentifier(ctx, username)
	if err != nil {
		// User-not-found passes through unmasked here; the orchestrator
		// owns the enumeration-prevention policy.
		return nil, err
	}

	ok, err := a.hasher.Verify(u.PasswordHash, plain)
	if err != nil || !ok {
		return nil, ErrBadCredentials
	}

	tok := token.New(u, firewallName, token.OriginInteractive)
	tok.SetAttribute(token.CredentialsAttribute, plain)

	if a.signer != nil && creds.Flag(a.cfg.RememberMeParameter) {
		cookie, err := a.signer.Create(u, req.TLS != nil)
		if err != nil {
			return nil, err
		}
		tok.SetAttribute(rememberme.CookieAttribute, cookie)
	}
	return tok, nil
}

// OnAuthenticationFailure redirects to the configured failure path, when
// one is set. This is the variant's terminal response; it short-circuits
// the rest of the chain.
func (a *FormLogin) OnAuthenticationFailure(_ *request.Request, _ error) *request.Response {
	if a.cfg.FailurePath == "" {
		return nil
	}
	return request.Redirect(a.cfg.FailurePath)
}
