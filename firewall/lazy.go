package firewall

import (
	"context"
	"log/slog"

	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// LazyContext wraps a firewall's listener list with deferred execution.
//
// For idempotent-safe requests (GET/HEAD) whose listeners all answer
// "maybe" to Supports, no listener runs up front; instead a one-shot
// initializer is registered on the token storage and the deferred listeners
// only execute the first time the token is actually read. Any listener that
// is not lazy-capable, or that answers a definite yes, forces eager
// execution from that point on.
type LazyContext struct {
	listeners []Listener
	storage   *token.Storage
	logger    *slog.Logger

	onDefer func()
	onInit  func()
}

// NewLazyContext wraps listeners around the request's token storage.
func NewLazyContext(listeners []Listener, storage *token.Storage, logger *slog.Logger) *LazyContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &LazyContext{listeners: listeners, storage: storage, logger: logger}
}

// OnDefer registers a hook fired when listeners are deferred, OnInit one
// fired when a deferred set actually runs. Used for instrumentation.
func (c *LazyContext) OnDefer(fn func()) { c.onDefer = fn }

// OnInit registers the deferred-execution hook, see OnDefer.
func (c *LazyContext) OnInit(fn func()) { c.onInit = fn }

// Handle scans the listeners in registration order and either runs them
// eagerly or registers the deferred bucket on the token storage. The first
// response produced by an eager listener stops the chain.
func (c *LazyContext) Handle(ctx context.Context, req *request.Request) (*request.Response, error) {
	lazy := req.IsMethodSafe()
	var deferred []Listener

	for _, l := range c.listeners {
		if lazy {
			aware, capable := l.(lazyCapable)
			if capable {
				switch aware.Supports(req) {
				case SupportNo:
					continue
				case SupportMaybe:
					deferred = append(deferred, l)
					continue
				case SupportYes:
				}
			}
			// This listener (not lazy-capable, or a definite yes) forces
			// eager mode for itself and everything after it. Flush the
			// bucket first so registration order is preserved.
			lazy = false
			for _, d := range deferred {
				resp, err := d.Handle(ctx, req)
				if resp != nil || err != nil {
					return resp, err
				}
			}
			deferred = nil
		}

		if aware, ok := l.(lazyCapable); ok && aware.Supports(req) == SupportNo {
			continue
		}
		resp, err := l.Handle(ctx, req)
		if resp != nil || err != nil {
			return resp, err
		}
	}

	if lazy && len(deferred) > 0 {
		c.deferListeners(ctx, req, deferred)
	}
	return nil, nil
}

func (c *LazyContext) deferListeners(ctx context.Context, req *request.Request, deferred []Listener) {
	if c.onDefer != nil {
		c.onDefer()
	}
	c.storage.SetInitializer(func() {
		if c.onInit != nil {
			c.onInit()
		}
		for _, l := range deferred {
			resp, err := l.Handle(ctx, req)
			if err != nil {
				c.logger.Error("deferred firewall listener failed", "error", err)
				return
			}
			if resp != nil {
				// Too late to write a response from a token probe.
				c.logger.Warn("deferred firewall listener produced a response; discarded")
				return
			}
		}
	})
}

type lazyCapable interface {
	Supports(req *request.Request) Support
}
