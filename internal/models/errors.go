package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers unknown email, missing password hash
	// and wrong password alike. Callers must not tell the user which one
	// it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrServiceUnavailable means the record store could not be queried.
	// Distinct from ErrInvalidCredentials so handlers can log it, even
	// though the UI shows the same generic message for both.
	ErrServiceUnavailable = errors.New("authentication service unavailable")

	// ErrNotFound is returned by user lookups by id.
	ErrNotFound = errors.New("user not found")

	// ErrValidation marks malformed or out-of-range input rejected before
	// any outbound call is made.
	ErrValidation = errors.New("validation failed")
)

// ProviderError wraps a failure from the payment provider. Its message is
// shown to the user as-is via flash, matching the original behavior.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
