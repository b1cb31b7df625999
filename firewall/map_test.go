package firewall

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-auth/gatehouse/request"
)

func getRequest(path string) *request.Request {
	return request.Wrap(httptest.NewRequest("GET", path, nil))
}

func mustMatcher(t *testing.T, pattern string, methods ...string) *Matcher {
	t.Helper()

	m, err := NewMatcher(pattern, methods...)
	if err != nil {
		t.Fatalf("NewMatcher(%q) failed: %v", pattern, err)
	}
	return m
}

type noopListener struct{}

func (noopListener) Handle(context.Context, *request.Request) (*request.Response, error) {
	return nil, nil
}

func TestMatcherPathAnchoring(t *testing.T) {
	m := mustMatcher(t, "/api")

	if !m.Matches(getRequest("/api/users")) {
		t.Fatal("/api/users must match the /api prefix")
	}
	if m.Matches(getRequest("/public/api")) {
		t.Fatal("pattern must be anchored at the path start")
	}
}

func TestMatcherMethods(t *testing.T) {
	m := mustMatcher(t, "/login", "POST")

	post := request.Wrap(httptest.NewRequest("POST", "/login", nil))
	if !m.Matches(post) {
		t.Fatal("POST /login must match")
	}
	if m.Matches(getRequest("/login")) {
		t.Fatal("GET must not match a POST-only rule")
	}
}

func TestMatcherHost(t *testing.T) {
	m, err := mustMatcher(t, "/").WithHost(`^admin\.`)
	if err != nil {
		t.Fatalf("WithHost failed: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Host = "admin.example.com"
	if !m.Matches(request.Wrap(r)) {
		t.Fatal("admin host must match")
	}
	r.Host = "www.example.com"
	if m.Matches(request.Wrap(r)) {
		t.Fatal("www host must not match")
	}
}

func TestMatchAll(t *testing.T) {
	if !MatchAll().Matches(getRequest("/anything")) {
		t.Fatal("MatchAll must match")
	}
}

func TestMapFirstMatchWins(t *testing.T) {
	m := NewMap()
	api := NewContext("api", nil, nil, nil, nil)
	catchAll := NewContext("main", nil, nil, nil, nil)
	m.Add(mustMatcher(t, "/api"), api)
	m.Add(MatchAll(), catchAll)

	if got := m.Resolve(getRequest("/api/users")); got != api {
		t.Fatalf("resolved %v", got)
	}
	if got := m.Resolve(getRequest("/profile")); got != catchAll {
		t.Fatalf("resolved %v", got)
	}
}

func TestMapResolveCachesOnRequest(t *testing.T) {
	m := NewMap()
	api := NewContext("api", nil, nil, nil, nil)
	m.Add(mustMatcher(t, "/api"), api)

	req := getRequest("/api/users")
	if m.Resolve(req) != api {
		t.Fatal("first resolution failed")
	}

	// A later, more specific rule must not steal an already resolved
	// request.
	stricter := NewContext("api-v2", nil, nil, nil, nil)
	m.Add(mustMatcher(t, "/api/users"), stricter)
	if got := m.Resolve(req); got != api {
		t.Fatalf("cached resolution changed to %v", got)
	}
}

func TestMapNoMatch(t *testing.T) {
	m := NewMap()
	m.Add(mustMatcher(t, "/api"), NewContext("api", nil, nil, nil, nil))

	req := getRequest("/public")
	if got := m.Resolve(req); got != nil {
		t.Fatalf("resolved %v for an unmatched request", got)
	}
	listeners, exception, logout := m.Listeners(req)
	if listeners == nil || len(listeners) != 0 {
		t.Fatalf("listeners = %v", listeners)
	}
	if exception != nil || logout != nil {
		t.Fatal("unmatched request must yield nil exception and logout listeners")
	}
}

func TestMapListeners(t *testing.T) {
	var chain noopListener
	var exception noopListener
	var logout noopListener
	m := NewMap()
	m.Add(MatchAll(), NewContext("main", []Listener{chain}, exception, logout, nil))

	listeners, exc, lo := m.Listeners(getRequest("/"))
	if len(listeners) != 1 || exc == nil || lo == nil {
		t.Fatalf("listeners = %v, exception = %v, logout = %v", listeners, exc, lo)
	}
}

func TestMapResolveCarriesConfig(t *testing.T) {
	m := NewMap()
	m.Add(MatchAll(), NewContext("main", nil, nil, nil, &ContextConfig{Lazy: true, Stateless: true}))

	ctx := m.Resolve(getRequest("/"))
	if ctx == nil || ctx.Config == nil {
		t.Fatalf("resolved context lost its config: %+v", ctx)
	}
	if !ctx.Config.Lazy || !ctx.Config.Stateless {
		t.Fatalf("config = %+v", ctx.Config)
	}
}

func TestAccessMapFirstMatch(t *testing.T) {
	m := NewAccessMap()
	m.Add(mustMatcher(t, "/admin"), []string{"ROLE_ADMIN"}, "https")
	m.Add(MatchAll(), []string{"ROLE_USER"}, "")

	attrs, channel := m.Patterns(getRequest("/admin/panel"))
	if len(attrs) != 1 || attrs[0] != "ROLE_ADMIN" || channel != "https" {
		t.Fatalf("attrs = %v, channel = %q", attrs, channel)
	}

	attrs, channel = m.Patterns(getRequest("/profile"))
	if len(attrs) != 1 || attrs[0] != "ROLE_USER" || channel != "" {
		t.Fatalf("attrs = %v, channel = %q", attrs, channel)
	}
}

func TestAccessMapNoMatch(t *testing.T) {
	m := NewAccessMap()
	m.Add(mustMatcher(t, "/admin"), []string{"ROLE_ADMIN"}, "")

	attrs, channel := m.Patterns(getRequest("/public"))
	if attrs != nil || channel != "" {
		t.Fatalf("attrs = %v, channel = %q", attrs, channel)
	}
}

func TestAccessMapCachesRuleIndex(t *testing.T) {
	m := NewAccessMap()
	m.Add(mustMatcher(t, "/admin"), []string{"ROLE_ADMIN"}, "")

	req := getRequest("/admin")
	m.Patterns(req)
	if v, ok := req.Attribute(AccessAttribute); !ok || v != 0 {
		t.Fatalf("cached index = %v, %v", v, ok)
	}
	attrs, _ := m.Patterns(req)
	if len(attrs) != 1 || attrs[0] != "ROLE_ADMIN" {
		t.Fatalf("cached lookup attrs = %v", attrs)
	}
}
