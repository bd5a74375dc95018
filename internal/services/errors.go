package services

import "errors"

var (
	ErrBadCreds       = errors.New("invalid email or password")
	ErrEmailTaken     = errors.New("an account with this email already exists")
	ErrAccountBlocked = errors.New("account is deactivated")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrBadState       = errors.New("invalid state for this operation")
)

// GateError is a tier or verification denial. Handlers render it as a 403
// with upgrade_required set so clients can route to the plans page.
type GateError struct {
	Detail string
	// Plan code one step up from the caller's tier, "" when the block is a
	// verification problem rather than a tier problem.
	UpgradePlan string
	// Quota marks blocks caused by a spent monthly allowance, so clients can
	// tell "wait for the reset" apart from "upgrade the tier".
	Quota bool
}

func (e *GateError) Error() string { return e.Detail }

// AsGate unwraps a GateError if err carries one.
func AsGate(err error) (*GateError, bool) {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
