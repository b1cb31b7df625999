package gatehouse

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// CsrfTokenManager issues and validates one-per-intention CSRF tokens.
type CsrfTokenManager interface {
	// Get returns the token for the intention, minting one if absent.
	Get(intention string) (string, error)
	// IsValid reports whether the submitted value matches the stored
	// token for the intention.
	IsValid(intention, submitted string) bool
	// Remove invalidates the stored token for the intention.
	Remove(intention string)
}

// InMemoryCsrfManager keeps tokens in process memory. Suitable for a
// single instance; multi-instance deployments need shared storage.
type InMemoryCsrfManager struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewInMemoryCsrfManager() *InMemoryCsrfManager {
	return &InMemoryCsrfManager{tokens: make(map[string]string)}
}

func (m *InMemoryCsrfManager) Get(intention string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tok, ok := m.tokens[intention]; ok {
		return tok, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	tok := hex.EncodeToString(buf)
	m.tokens[intention] = tok
	return tok, nil
}

func (m *InMemoryCsrfManager) IsValid(intention, submitted string) bool {
	m.mu.Lock()
	stored, ok := m.tokens[intention]
	m.mu.Unlock()
	if !ok || submitted == "" {
		return false
	}
	return hmac.Equal([]byte(stored), []byte(submitted))
}

func (m *InMemoryCsrfManager) Remove(intention string) {
	m.mu.Lock()
	delete(m.tokens, intention)
	m.mu.Unlock()
}

// CsrfToken is a guard, not an identity source. On pass it returns no
// token so the chain continues to the credential authenticator; on
// mismatch it fails the whole attempt.
type CsrfToken struct {
	cfg     CsrfConfig
	manager CsrfTokenManager
}

// NewCsrfToken builds the guard. A nil manager gets an in-memory one.
func NewCsrfToken(cfg CsrfConfig, manager CsrfTokenManager) *CsrfToken {
	if cfg.ParameterName == "" {
		cfg.ParameterName = "_csrf_token"
	}
	if cfg.TokenID == "" {
		cfg.TokenID = "authenticate"
	}
	if manager == nil {
		manager = NewInMemoryCsrfManager()
	}
	return &CsrfToken{cfg: cfg, manager: manager}
}

// NewCsrfToken builds the guard from the engine's configuration.
func (e *Engine) NewCsrfToken(manager CsrfTokenManager) *CsrfToken {
	return NewCsrfToken(e.config.Csrf, manager)
}

func (a *CsrfToken) Name() string { return "csrf_token" }

// Manager exposes the underlying manager so handlers can mint tokens
// for forms.
func (a *CsrfToken) Manager() CsrfTokenManager { return a.manager }

// Supports accepts state-changing requests that carry the parameter
// anywhere a form field can travel.
func (a *CsrfToken) Supports(req *request.Request) bool {
	return !req.IsMethodSafe()
}

func (a *CsrfToken) Authenticate(_ context.Context, req *request.Request, bag *credentials.Bag, _ string) (*token.Token, error) {
	submitted := bag.String(a.cfg.ParameterName)
	if submitted == "" {
		if v := req.FormValues().Get(a.cfg.ParameterName); v != "" {
			submitted = v
		}
	}
	if !a.manager.IsValid(a.cfg.TokenID, submitted) {
		return nil, ErrInvalidCsrfToken
	}
	a.manager.Remove(a.cfg.TokenID)
	return nil, nil
}
