package gatehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/firewall"
	"github.com/gatehouse-auth/gatehouse/internal/audit"
	"github.com/gatehouse-auth/gatehouse/metrics"
	"github.com/gatehouse-auth/gatehouse/rememberme"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
	"github.com/gatehouse-auth/gatehouse/user"
)

// Engine is the authentication orchestrator. It owns the ordered
// authenticator chain, applies rate limiting, masks sensitive errors,
// dispatches success and failure notifications, and answers access-check
// queries. Safe for concurrent use after Build; per-request state lives on
// the request, never on the Engine.
type Engine struct {
	config   Config
	registry *Registry
	limiter  RateLimiter
	checker  user.Checker
	decider  AccessDecider
	signer   *rememberme.Signer

	userLookup user.Provider
	hasher     PasswordHasher

	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	resolver credentials.Resolver

	mu        sync.RWMutex
	onSuccess []SuccessListener
	onFailure []FailureListener
}

// Registry exposes the authenticator registry for add/remove at runtime.
func (e *Engine) Registry() *Registry { return e.registry }

// AddSuccessListener registers a success-notification listener.
func (e *Engine) AddSuccessListener(l SuccessListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSuccess = append(e.onSuccess, l)
}

// AddFailureListener registers a failure-notification listener.
func (e *Engine) AddFailureListener(l FailureListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFailure = append(e.onFailure, l)
}

// Close drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Authenticate runs the chain against the request.
//
// credentialKeys are resolved into a read-only credentials bag before the
// chain starts; only, when non-empty, restricts the chain to the named
// variants. The return values map the three outcomes: a non-nil response
// terminates the request (the only mid-chain short circuit), a nil, nil
// pair means the chain completed (either an authenticator established a
// token or none applied), and an error is a propagated authentication
// failure.
func (e *Engine) Authenticate(ctx context.Context, req *request.Request, credentialKeys []string, only ...string) (*request.Response, error) {
	auths := e.registry.snapshot()
	if len(auths) == 0 {
		return nil, ErrProviderNotFound
	}

	storage := RequestStorage(req)
	previous := storage.Token()

	bag, err := e.resolver.Bag(req, credentialKeys)
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		decision, err := e.limiter.Consume(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		if !decision.Accepted {
			storage.SetToken(nil)
			e.metrics.RateLimited(e.config.FirewallName)
			ev := newAuditEvent(AuditLoginRateLimited)
			ev.Firewall = e.config.FirewallName
			ev.IP = req.ClientIP()
			e.audit.Emit(ctx, ev)
			return nil, newTooManyAttempts(decision.RetryAfter, time.Now())
		}
	}

	var onlySet map[string]bool
	if len(only) > 0 {
		onlySet = make(map[string]bool, len(only))
		for _, name := range only {
			onlySet[name] = true
		}
	}

	for _, a := range auths {
		if onlySet != nil && !onlySet[a.Name()] {
			continue
		}
		if tr, ok := a.(TokenRequiring); ok {
			tr.SetToken(req, previous)
		}
		if !a.Supports(req) {
			continue
		}

		tok, err := a.Authenticate(ctx, req, bag, e.config.FirewallName)
		if err != nil {
			return e.handleFailure(ctx, req, a, err)
		}
		if tok == nil {
			continue
		}
		return e.handleSuccess(ctx, req, storage, a, tok)
	}

	return nil, nil
}

func (e *Engine) handleSuccess(ctx context.Context, req *request.Request, storage *token.Storage, a Authenticator, tok *token.Token) (*request.Response, error) {
	storage.SetToken(tok)

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, req); err != nil {
			e.logger.Warn("rate limiter reset failed", "error", err)
		}
	}

	if tok.HasIdentity() {
		if err := e.checker.CheckPreAuth(tok.User); err != nil {
			storage.SetToken(nil)
			return e.handleFailure(ctx, req, a, err)
		}
		if err := e.checker.CheckPostAuth(tok.User); err != nil {
			storage.SetToken(nil)
			return e.handleFailure(ctx, req, a, err)
		}
	}

	ev := &SuccessEvent{Request: req, Authenticator: a.Name(), tok: tok}
	e.mu.RLock()
	listeners := e.onSuccess
	e.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
	if ev.replaced && ev.tok != tok {
		tok = ev.tok
		storage.SetToken(tok)
	}

	if e.config.EraseCredentials && tok != nil {
		tok.EraseCredentials()
	}

	e.metrics.AuthSuccess(e.config.FirewallName, a.Name())
	record := newAuditEvent(AuditLoginSuccess)
	record.Firewall = e.config.FirewallName
	record.Authenticator = a.Name()
	if tok != nil {
		record.UserID = tok.User.UserID
	}
	record.IP = req.ClientIP()
	record.Success = true
	e.audit.Emit(ctx, record)

	if tok == nil {
		// A success listener may clear the token entirely; storage was
		// already updated above, nothing left to issue.
		return nil, nil
	}

	if _, issued := tok.Attribute(rememberme.CookieAttribute); issued {
		e.metrics.RememberMe("issued")
		issuedEv := newAuditEvent(AuditRememberMeIssued)
		issuedEv.Firewall = e.config.FirewallName
		issuedEv.UserID = tok.User.UserID
		issuedEv.Success = true
		e.audit.Emit(ctx, issuedEv)
	}

	return nil, nil
}

func (e *Engine) handleFailure(ctx context.Context, req *request.Request, a Authenticator, err error) (*request.Response, error) {
	err = maskAuthError(err, e.config.HideUserNotFound)

	var resp *request.Response
	if fr, ok := a.(FailureResponder); ok {
		resp = fr.OnAuthenticationFailure(req, err)
	}

	ev := &FailureEvent{Request: req, Authenticator: a.Name(), err: err, resp: resp}
	e.mu.RLock()
	listeners := e.onFailure
	e.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
	err, resp = ev.err, ev.resp

	e.metrics.AuthFailure(e.config.FirewallName, a.Name())
	record := newAuditEvent(AuditLoginFailure)
	record.Firewall = e.config.FirewallName
	record.Authenticator = a.Name()
	record.IP = req.ClientIP()
	if err != nil {
		record.Error = err.Error()
	}
	e.audit.Emit(ctx, record)

	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// IsGranted delegates the access decision for the request's current token.
// When no token is established, or the token has no identity, a null
// anonymous token is substituted.
func (e *Engine) IsGranted(ctx context.Context, req *request.Request, attribute string, subject any) (bool, error) {
	tok := RequestStorage(req).Token()
	if !tok.HasIdentity() {
		tok = token.Anonymous()
	}
	return e.decider.Decide(ctx, tok, []string{attribute}, subject)
}

// Listener adapts the engine into a firewall listener with the given
// credential keys. Its support answer is always "maybe": whether any
// authenticator applies is only known once the chain runs, which is what
// makes the firewall lazily deferrable.
func (e *Engine) Listener(credentialKeys []string, only ...string) firewall.Listener {
	return &engineListener{engine: e, keys: credentialKeys, only: only}
}

// NewLazyContext wraps listeners in a lazy firewall context bound to the
// request's token storage, with the engine's logger and lazy-execution
// metrics attached.
func (e *Engine) NewLazyContext(listeners []firewall.Listener, storage *token.Storage) *firewall.LazyContext {
	lc := firewall.NewLazyContext(listeners, storage, e.logger)
	lc.OnDefer(e.metrics.LazyDeferred)
	lc.OnInit(e.metrics.LazyInitialized)
	return lc
}

type engineListener struct {
	engine *Engine
	keys   []string
	only   []string
}

func (l *engineListener) Supports(*request.Request) firewall.Support {
	return firewall.SupportMaybe
}

func (l *engineListener) Handle(ctx context.Context, req *request.Request) (*request.Response, error) {
	return l.engine.Authenticate(ctx, req, l.keys, l.only...)
}
