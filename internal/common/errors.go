package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when a key is absent.
	ErrNotFound = errors.New("not found")

	// ErrNoSession means no authenticated account is available.
	ErrNoSession = errors.New("no active session")

	// ErrMissingToken is the reason used when the callback carries no identity token.
	ErrMissingToken = errors.New("missing token")

	// ErrNonceMismatch is the reason used when the token is bound to another key pair.
	ErrNonceMismatch = errors.New("nonce mismatch")

	// ErrFundsLocked is returned when a withdrawal is attempted before the unlock time.
	ErrFundsLocked = errors.New("funds locked")

	// ErrUserRejected is what a signer returns when the user declines to sign.
	ErrUserRejected = errors.New("User has rejected the request")
)

// ValidationError reports bad local input. It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError is a shorthand constructor.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthError covers OAuth and account derivation failures. Recovery is always
// a fresh login.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth error: " + e.Reason
	}
	return fmt.Sprintf("auth error: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps err (which may be nil) with a short reason.
func NewAuthError(reason string, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}

// SubmissionError means the signer rejected the transaction or failed to
// submit it. Nothing was committed.
type SubmissionError struct {
	Category Category
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction submission failed (%s): %v", e.Category, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationTimeout means the bounded wait elapsed before the transaction
// was seen committed. The transaction may still land.
type ConfirmationTimeout struct {
	Hash string
}

func (e *ConfirmationTimeout) Error() string {
	return fmt.Sprintf("confirmation of %s timed out; outcome unknown", e.Hash)
}

// ChainError is a transaction that was committed but did not succeed.
type ChainError struct {
	Category Category
	Hash     string
	VMStatus string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("transaction %s failed (%s): %s", e.Hash, e.Category, e.VMStatus)
}

// OperationInProgressError rejects a vault call while another one for the
// same account is still submitted or confirming.
type OperationInProgressError struct {
	Address   string
	Operation string
}

func (e *OperationInProgressError) Error() string {
	return fmt.Sprintf("%s already in progress for %s", e.Operation, e.Address)
}
