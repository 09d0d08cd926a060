package economy

import (
	"errors"
	"fmt"
)

// Business rule failures. They are terminal for the request and leave no state change behind.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountNotLinked   = errors.New("account not linked to a game identity")
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingUnavailable = errors.New("listing is no longer available")
	ErrSelfPurchase       = errors.New("cannot purchase your own listing")
	ErrInvalidOrUsedCode  = errors.New("invalid or already used link code")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidListing     = errors.New("invalid listing")
	ErrInvalidItem        = errors.New("invalid item")
	ErrGameIdentityTaken  = errors.New("game identity already linked to another account")
	ErrItemNotFound       = errors.New("pending item not found")
	ErrMissingIdentity    = errors.New("identity key is required")
	ErrValueTooLong       = errors.New("value exceeds the stored length")
)

var businessErrors = []error{
	ErrInsufficientFunds,
	ErrAccountNotLinked,
	ErrListingNotFound,
	ErrListingUnavailable,
	ErrSelfPurchase,
	ErrInvalidOrUsedCode,
	ErrInvalidAmount,
	ErrInvalidListing,
	ErrInvalidItem,
	ErrGameIdentityTaken,
	ErrItemNotFound,
	ErrMissingIdentity,
	ErrValueTooLong,
}

// InfrastructureError reports a store failure (unreachable, timeout, lost version race).
// It is the only retryable error kind.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: infrastructure failure: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the operation with backoff
func IsRetryable(err error) bool {
	var infraErr *InfrastructureError
	return errors.As(err, &infraErr)
}

// IsBusinessError reports whether err is one of the named business rule failures
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
