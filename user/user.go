// Package user defines the account model consumed by the authentication
// pipeline: the user record, the provider lookup contract, and account
// status checks.
package user

import (
	"context"
	"errors"
	"fmt"
)

// Status represents the lifecycle state of a user account.
type Status uint8

const (
	// StatusActive marks an account that may authenticate.
	StatusActive Status = iota
	// StatusPendingVerification marks an account awaiting identity verification.
	StatusPendingVerification
	// StatusDisabled marks an administratively disabled account.
	StatusDisabled
	// StatusLocked marks a locked account.
	StatusLocked
	// StatusDeleted marks a soft-deleted account.
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPendingVerification:
		return "pending_verification"
	case StatusDisabled:
		return "disabled"
	case StatusLocked:
		return "locked"
	case StatusDeleted:
		return "deleted"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

var (
	// ErrNotFound is returned by providers when no account matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrUnsupported is returned by providers handed an account they do not manage.
	ErrUnsupported = errors.New("unsupported user")
)

// Record is the account record returned by a [Provider]. The password hash
// never leaves the process through serialization.
type Record struct {
	UserID       string   `json:"user_id"`
	Identifier   string   `json:"identifier"`
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles,omitempty"`
	Status       Status   `json:"status"`
}

// Provider is the lookup capability callers implement against their own
// account database.
type Provider interface {
	LoadByIdentifier(ctx context.Context, identifier string) (Record, error)
	LoadByID(ctx context.Context, userID string) (Record, error)
}

// StatusError reports an account whose lifecycle state blocks
// authentication. When Custom is set the message is user-facing and exempt
// from bad-credentials masking.
type StatusError struct {
	Status  Status
	Message string
	Custom  bool
}

// NewStatusError builds a StatusError with the default message for status.
func NewStatusError(status Status) *StatusError {
	return &StatusError{Status: status, Message: "account " + status.String()}
}

// NewCustomStatusError builds a StatusError carrying a user-facing message.
func NewCustomStatusError(status Status, message string) *StatusError {
	return &StatusError{Status: status, Message: message, Custom: true}
}

func (e *StatusError) Error() string { return e.Message }
