// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrAccountNotFound   = errors.New("withdrawal account not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")

	ErrNotEligibleYet         = errors.New("not yet eligible")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrAlreadyProcessed       = errors.New("record already processed")
	ErrBelowMinimum           = errors.New("amount below minimum withdrawal")
	ErrUserBlocked            = errors.New("user is blocked")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")

	// ErrCodeTaken reports a referral code claimed by a concurrent registration.
	ErrCodeTaken = fmt.Errorf("referral code taken: %w", ErrDuplicateEntry)
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
