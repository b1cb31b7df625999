package firewall

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// supportListener is a lazy-capable listener with scripted answers.
type supportListener struct {
	support Support
	resp    *request.Response
	err     error
	handled int
	setTok  *token.Token
	storage *token.Storage
}

func (l *supportListener) Supports(*request.Request) Support { return l.support }

func (l *supportListener) Handle(context.Context, *request.Request) (*request.Response, error) {
	l.handled++
	if l.setTok != nil && l.storage != nil {
		l.storage.SetToken(l.setTok)
	}
	return l.resp, l.err
}

// plainListener is not lazy-capable.
type plainListener struct {
	handled int
}

func (l *plainListener) Handle(context.Context, *request.Request) (*request.Response, error) {
	l.handled++
	return nil, nil
}

func safeRequest() *request.Request {
	return request.Wrap(httptest.NewRequest("GET", "/dashboard", nil))
}

func unsafeRequest() *request.Request {
	return request.Wrap(httptest.NewRequest("POST", "/dashboard", nil))
}

func TestLazyDefersMaybeListeners(t *testing.T) {
	storage := token.NewStorage()
	maybe := &supportListener{support: SupportMaybe}
	lc := NewLazyContext([]Listener{maybe}, storage, nil)

	var deferred, initialized int
	lc.OnDefer(func() { deferred++ })
	lc.OnInit(func() { initialized++ })

	resp, err := lc.Handle(context.Background(), safeRequest())
	if resp != nil || err != nil {
		t.Fatalf("Handle = %v, %v", resp, err)
	}
	if maybe.handled != 0 {
		t.Fatal("deferred listener must not run up front")
	}
	if deferred != 1 || initialized != 0 {
		t.Fatalf("deferred = %d, initialized = %d", deferred, initialized)
	}

	// First token read runs the deferred bucket exactly once.
	if storage.Token() != nil {
		t.Fatal("no listener set a token")
	}
	if maybe.handled != 1 {
		t.Fatalf("handled = %d", maybe.handled)
	}
	if initialized != 1 {
		t.Fatalf("initialized = %d", initialized)
	}

	// Further reads do not re-run the bucket.
	storage.Token()
	if maybe.handled != 1 {
		t.Fatalf("initializer re-ran, handled = %d", maybe.handled)
	}
}

func TestLazyDeferredListenerSetsToken(t *testing.T) {
	storage := token.NewStorage()
	maybe := &supportListener{support: SupportMaybe, storage: storage}
	maybe.setTok = token.Anonymous()
	lc := NewLazyContext([]Listener{maybe}, storage, nil)

	if _, err := lc.Handle(context.Background(), safeRequest()); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if got := storage.Token(); got != maybe.setTok {
		t.Fatalf("token = %v", got)
	}
}

func TestUnsafeMethodRunsEagerly(t *testing.T) {
	storage := token.NewStorage()
	maybe := &supportListener{support: SupportMaybe}
	lc := NewLazyContext([]Listener{maybe}, storage, nil)

	if _, err := lc.Handle(context.Background(), unsafeRequest()); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if maybe.handled != 1 {
		t.Fatal("unsafe methods must run every supporting listener eagerly")
	}
}

func TestSupportNoSkipsEntirely(t *testing.T) {
	storage := token.NewStorage()
	no := &supportListener{support: SupportNo}
	lc := NewLazyContext([]Listener{no}, storage, nil)

	if _, err := lc.Handle(context.Background(), safeRequest()); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	storage.Token()
	if no.handled != 0 {
		t.Fatal("a definite no must never run, eagerly or deferred")
	}
}

func TestDefiniteYesFlushesDeferredInOrder(t *testing.T) {
	storage := token.NewStorage()
	var order []string
	first := &orderedListener{name: "first", support: SupportMaybe, order: &order}
	second := &orderedListener{name: "second", support: SupportYes, order: &order}
	third := &orderedListener{name: "third", support: SupportMaybe, order: &order}
	lc := NewLazyContext([]Listener{first, second, third}, storage, nil)

	if _, err := lc.Handle(context.Background(), safeRequest()); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestNonLazyCapableForcesEager(t *testing.T) {
	storage := token.NewStorage()
	maybe := &supportListener{support: SupportMaybe}
	plain := &plainListener{}
	lc := NewLazyContext([]Listener{maybe, plain}, storage, nil)

	if _, err := lc.Handle(context.Background(), safeRequest()); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if maybe.handled != 1 || plain.handled != 1 {
		t.Fatalf("handled = %d, %d", maybe.handled, plain.handled)
	}
}

func TestEagerResponseStopsChain(t *testing.T) {
	storage := token.NewStorage()
	responder := &supportListener{support: SupportYes, resp: request.Redirect("/login")}
	after := &supportListener{support: SupportYes}
	lc := NewLazyContext([]Listener{responder, after}, storage, nil)

	resp, err := lc.Handle(context.Background(), safeRequest())
	if err != nil || resp == nil || resp.Status != 302 {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if after.handled != 0 {
		t.Fatal("a produced response must stop the chain")
	}
}

func TestEagerErrorStopsChain(t *testing.T) {
	storage := token.NewStorage()
	boom := errors.New("boom")
	failing := &supportListener{support: SupportYes, err: boom}
	after := &supportListener{support: SupportYes}
	lc := NewLazyContext([]Listener{failing, after}, storage, nil)

	_, err := lc.Handle(context.Background(), safeRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if after.handled != 0 {
		t.Fatal("an error must stop the chain")
	}
}

type orderedListener struct {
	name    string
	support Support
	order   *[]string
}

func (l *orderedListener) Supports(*request.Request) Support { return l.support }

func (l *orderedListener) Handle(context.Context, *request.Request) (*request.Response, error) {
	*l.order = append(*l.order, l.name)
	return nil, nil
}
