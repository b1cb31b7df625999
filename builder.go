package gatehouse

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/gatehouse-auth/gatehouse/internal/audit"
	"github.com/gatehouse-auth/gatehouse/internal/rate"
	"github.com/gatehouse-auth/gatehouse/metrics"
	"github.com/gatehouse-auth/gatehouse/password"
	"github.com/gatehouse-auth/gatehouse/rememberme"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/user"
)

// Builder assembles an Engine. Configure during initialization, call Build
// once, then treat the Engine as immutable.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider   user.Provider
	userChecker    user.Checker
	hasher         PasswordHasher
	authenticators []Authenticator
	limiter        RateLimiter
	limiterKey     func(*request.Request) string
	decider        AccessDecider
	auditSink      AuditSink
	logger         *slog.Logger
	promReg        prometheus.Registerer

	built bool
}

// New returns a Builder seeded with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider supplies the account lookup collaborator.
func (b *Builder) WithUserProvider(p user.Provider) *Builder {
	b.userProvider = p
	return b
}

// WithUserChecker overrides the default account-status checker.
func (b *Builder) WithUserChecker(c user.Checker) *Builder {
	b.userChecker = c
	return b
}

// WithPasswordHasher overrides the default argon2id hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithAuthenticators registers the chain, in order.
func (b *Builder) WithAuthenticators(auths ...Authenticator) *Builder {
	b.authenticators = append(b.authenticators, auths...)
	return b
}

// WithRateLimiter supplies a fully custom limiter, bypassing the built-in
// Redis/memory fixed-window one.
func (b *Builder) WithRateLimiter(l RateLimiter) *Builder {
	b.limiter = l
	return b
}

// WithRateLimitKey overrides how the built-in limiter derives its counter
// key from a request. The default keys per client IP.
func (b *Builder) WithRateLimitKey(fn func(*request.Request) string) *Builder {
	b.limiterKey = fn
	return b
}

// WithAccessDecider overrides the default role-based decider.
func (b *Builder) WithAccessDecider(d AccessDecider) *Builder {
	b.decider = d
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the structured logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithPrometheus registers pipeline collectors on the given registerer.
func (b *Builder) WithPrometheus(reg prometheus.Registerer) *Builder {
	b.promReg = reg
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	checker := b.userChecker
	if checker == nil {
		checker = user.StatusChecker{}
	}

	decider := b.decider
	if decider == nil {
		decider = RoleDecider{}
	}

	var signer *rememberme.Signer
	if cfg.RememberMe.Enabled {
		s, err := rememberme.NewSigner(rememberme.Config{
			Secret:     cfg.RememberMe.Secret,
			Lifetime:   cfg.RememberMe.Lifetime,
			CookieName: cfg.RememberMe.CookieName,
			Path:       cfg.RememberMe.Path,
			Domain:     cfg.RememberMe.Domain,
		})
		if err != nil {
			return nil, err
		}
		signer = s
	}

	limiter := b.limiter
	if limiter == nil && cfg.RateLimit.Enabled {
		rcfg := rate.Config{
			MaxAttempts: cfg.RateLimit.MaxAttempts,
			Cooldown:    cfg.RateLimit.Cooldown,
			Prefix:      cfg.RateLimit.KeyPrefix,
		}
		var inner rate.Limiter
		if b.redis != nil {
			inner = rate.NewRedis(b.redis, rcfg)
		} else {
			inner = rate.NewMemory(rcfg)
		}
		keyFn := b.limiterKey
		if keyFn == nil {
			keyFn = func(req *request.Request) string { return req.ClientIP() }
		}
		limiter = &limiterAdapter{inner: inner, key: keyFn}
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = NewSlogSink(logger)
		}
		dispatcher = audit.NewDispatcher(audit.Config{
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(b.promReg)
	}

	return &Engine{
		config:     cfg,
		registry:   NewRegistry(b.authenticators...),
		limiter:    limiter,
		checker:    checker,
		decider:    decider,
		signer:     signer,
		userLookup: b.userProvider,
		hasher:     hasher,
		audit:      dispatcher,
		metrics:    m,
		logger:     logger,
	}, nil
}

// limiterAdapter maps the internal key-based limiter onto the
// request-based RateLimiter contract.
type limiterAdapter struct {
	inner rate.Limiter
	key   func(*request.Request) string
}

func (a *limiterAdapter) Consume(ctx context.Context, req *request.Request) (LimitDecision, error) {
	d, err := a.inner.Consume(ctx, a.key(req))
	if err != nil {
		return LimitDecision{}, err
	}
	return LimitDecision{Accepted: d.Allowed, RetryAfter: d.RetryAfter}, nil
}

func (a *limiterAdapter) Reset(ctx context.Context, req *request.Request) error {
	return a.inner.Reset(ctx, a.key(req))
}
