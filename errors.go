package gatehouse

import (
	"errors"
	"fmt"
	"time"

	"github.com/gatehouse-auth/gatehouse/user"
)

var (
	// ErrProviderNotFound is returned when Authenticate runs with an empty
	// authenticator registry. Fatal and immediate.
	ErrProviderNotFound = errors.New("no authenticators registered")
	// ErrBadCredentials is the flat anti-enumeration failure: callers must
	// not be able to distinguish "no such user" from "wrong password".
	ErrBadCredentials = errors.New("Bad credentials.")
	// ErrInvalidCsrfToken is returned by the CsrfToken authenticator.
	ErrInvalidCsrfToken = errors.New("invalid csrf token")
	// ErrCaptchaRejected is returned by the Captcha authenticator.
	ErrCaptchaRejected = errors.New("captcha verification failed")
	// ErrAuthenticationFailed is the generic catch-all for
	// authenticator-specific failures.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrTooManyLoginAttempts matches rate-limit rejections via errors.Is.
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
)

// TooManyAttemptsError is raised before any authenticator executes when
// the rate limiter rejects the attempt. RetryMinutes is rounded up to
// whole minutes.
type TooManyAttemptsError struct {
	RetryAfter   time.Time
	RetryMinutes int
}

func newTooManyAttempts(retryAfter, now time.Time) *TooManyAttemptsError {
	seconds := retryAfter.Sub(now).Seconds()
	minutes := int(seconds / 60)
	if float64(minutes*60) < seconds {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return &TooManyAttemptsError{RetryAfter: retryAfter, RetryMinutes: minutes}
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %d minute(s)", e.RetryMinutes)
}

// Is makes the typed error match ErrTooManyLoginAttempts.
func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyLoginAttempts
}

// maskAuthError applies the anti-enumeration policy: user-not-found and
// account-status failures without a custom user-facing message collapse
// into the flat bad-credentials error. Pure function over the error value.
func maskAuthError(err error, hide bool) error {
	if !hide {
		return err
	}
	if errors.Is(err, user.ErrNotFound) {
		return ErrBadCredentials
	}
	var statusErr *user.StatusError
	if errors.As(err, &statusErr) && !statusErr.Custom {
		return ErrBadCredentials
	}
	return err
}
