package engine

import "errors"

// Rejections. A rejected action leaves the player state untouched.
var (
	ErrInsufficientFunds   = errors.New("insufficient_funds")
	ErrMissingPrerequisite = errors.New("missing_prerequisite")
	ErrCapacityExceeded    = errors.New("capacity_exceeded")
	ErrNotFound            = errors.New("not_found")
	ErrAlreadyDone         = errors.New("already_done")
	ErrBusy                = errors.New("busy")
	ErrLockedOut           = errors.New("locked_out")
)

var rejections = []error{
	ErrInsufficientFunds,
	ErrMissingPrerequisite,
	ErrCapacityExceeded,
	ErrNotFound,
	ErrAlreadyDone,
	ErrBusy,
	ErrLockedOut,
}

// RejectionReason returns the wire code for a rejection, or "" when err is
// not one.
func RejectionReason(err error) string {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return r.Error()
		}
	}
	return ""
}
