package gatehouse

import (
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// SuccessEvent is dispatched after a token has been established and
// stored. Listeners may replace the token; the replacement is written back
// to storage after dispatch.
type SuccessEvent struct {
	Request       *request.Request
	Authenticator string

	tok      *token.Token
	replaced bool
}

// Token returns the event's current token.
func (e *SuccessEvent) Token() *token.Token { return e.tok }

// SetToken replaces the token carried by the event.
func (e *SuccessEvent) SetToken(t *token.Token) {
	e.tok = t
	e.replaced = true
}

// FailureEvent is dispatched when an authenticator fails. Listeners may
// replace the error and may attach or replace a terminal response.
type FailureEvent struct {
	Request       *request.Request
	Authenticator string

	err  error
	resp *request.Response
}

// Err returns the event's current (possibly masked) error.
func (e *FailureEvent) Err() error { return e.err }

// SetErr replaces the error carried by the event.
func (e *FailureEvent) SetErr(err error) { e.err = err }

// Response returns the terminal response, nil when none was produced.
func (e *FailureEvent) Response() *request.Response { return e.resp }

// SetResponse attaches or replaces the terminal response.
func (e *FailureEvent) SetResponse(resp *request.Response) { e.resp = resp }

// SuccessListener observes and may mutate success events.
type SuccessListener func(*SuccessEvent)

// FailureListener observes and may mutate failure events.
type FailureListener func(*FailureEvent)
