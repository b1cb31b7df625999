package user

// Checker runs account checks around authentication. CheckPreAuth runs
// before a token is accepted; CheckPostAuth runs after the token has been
// established.
type Checker interface {
	CheckPreAuth(r Record) error
	CheckPostAuth(r Record) error
}

// StatusChecker is the default Checker. It rejects accounts that are not
// active: disabled and deleted accounts fail pre-auth, locked and pending
// accounts fail post-auth.
type StatusChecker struct{}

func (StatusChecker) CheckPreAuth(r Record) error {
	switch r.Status {
	case StatusDisabled, StatusDeleted:
		return NewStatusError(r.Status)
	}
	return nil
}

func (StatusChecker) CheckPostAuth(r Record) error {
	switch r.Status {
	case StatusLocked, StatusPendingVerification:
		return NewStatusError(r.Status)
	}
	return nil
}
