package firewall

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gatehouse-auth/gatehouse/request"
)

// ContextAttribute caches the resolved firewall context id on the request,
// making repeated resolutions within one request lifecycle idempotent.
const ContextAttribute = "gatehouse.firewall_context"

// Listener is one unit of a firewall's chain. A non-nil response terminates
// the chain for this request.
type Listener interface {
	Handle(ctx context.Context, req *request.Request) (*request.Response, error)
}

// Support is the three-valued answer a lazy-capable listener gives before
// running: definitely applies, definitely not, or unknown until executed.
type Support int8

const (
	// SupportNo means the listener does not apply to the request.
	SupportNo Support = iota
	// SupportYes means the listener definitely applies and must run eagerly.
	SupportYes
	// SupportMaybe means applicability is unknown until the listener runs;
	// such listeners may be deferred.
	SupportMaybe
)

// ContextConfig is optional per-firewall configuration consumed by the
// dispatch layer: Lazy selects LazyContext execution for the listener set,
// Stateless suppresses session persistence for requests on this firewall.
type ContextConfig struct {
	Lazy      bool
	Stateless bool
}

// Context is one firewall's listener set plus its exception and logout
// slots. Immutable once constructed; looked up by its generated id.
type Context struct {
	id   string
	Name string

	Listeners         []Listener
	ExceptionListener Listener
	LogoutListener    Listener
	Config            *ContextConfig
}

// NewContext builds an immutable firewall context.
func NewContext(name string, listeners []Listener, exception, logout Listener, cfg *ContextConfig) *Context {
	return &Context{
		id:                uuid.NewString(),
		Name:              name,
		Listeners:         listeners,
		ExceptionListener: exception,
		LogoutListener:    logout,
		Config:            cfg,
	}
}

// ID returns the context's stable lookup id.
func (c *Context) ID() string { return c.id }

type mapEntry struct {
	matcher *Matcher
	ctx     *Context
}

// Map holds the ordered (matcher, firewall context) rules. Order is
// significant: the first matching rule wins, always.
type Map struct {
	mu      sync.RWMutex
	entries []mapEntry
	byID    map[string]*Context
}

// NewMap returns an empty firewall map.
func NewMap() *Map {
	return &Map{byID: make(map[string]*Context)}
}

// Add appends a rule. Later additions never shadow earlier ones.
func (m *Map) Add(matcher *Matcher, ctx *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, mapEntry{matcher: matcher, ctx: ctx})
	m.byID[ctx.id] = ctx
}

// Resolve returns the firewall context governing the request, nil when no
// rule matches. A previous resolution cached on the request short-circuits
// the scan.
func (m *Map) Resolve(req *request.Request) *Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := req.Attribute(ContextAttribute); ok {
		if id, ok := v.(string); ok {
			if ctx, ok := m.byID[id]; ok {
				return ctx
			}
		}
	}

	for _, e := range m.entries {
		if e.matcher.Matches(req) {
			req.SetAttribute(ContextAttribute, e.ctx.id)
			return e.ctx
		}
	}
	return nil
}

// Listeners resolves the request's firewall and returns its listener set,
// exception listener, and logout listener. No match yields (empty, nil, nil).
func (m *Map) Listeners(req *request.Request) ([]Listener, Listener, Listener) {
	ctx := m.Resolve(req)
	if ctx == nil {
		return []Listener{}, nil, nil
	}
	return ctx.Listeners, ctx.ExceptionListener, ctx.LogoutListener
}
