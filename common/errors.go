package common

import (
	"errors"
	"fmt"
)

// Failure classes shared by both bridge contracts. Contract errors wrap one of
// them, so callers can use errors.Is regardless of the exact message.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrMissingField          = errors.New("missing field")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotInitialized        = errors.New("counterpart is not initialized")
	ErrAlreadyInitialized    = errors.New("counterpart is already initialized")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrUnknownMessage        = errors.New("unknown message")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidMetadata       = errors.New("invalid token metadata")
)

// Revert is a contract failure. Its message is what the ledger records as the
// FAULT exception.
type Revert struct {
	Kind  error
	Msg   string
	Cause error
}

// Error implements error interface.
func (r *Revert) Error() string { return r.Msg }

// Unwrap returns failure class and the cause if any.
func (r *Revert) Unwrap() []error {
	if r.Cause != nil {
		return []error{r.Kind, r.Cause}
	}
	return []error{r.Kind}
}

// Revertf returns a failure of the given class with formatted message.
func Revertf(kind error, format string, args ...any) error {
	return &Revert{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrapf is like Revertf but also keeps the underlying error.
func Wrapf(kind, cause error, format string, args ...any) error {
	return &Revert{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}
