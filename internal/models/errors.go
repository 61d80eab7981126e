package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentity is returned when registering a username that is taken.
	ErrDuplicateIdentity = errors.New("expenses: username already exists")
	// ErrInvalidCredentials does not say whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("expenses: invalid credentials")
	// ErrNotFound covers both a missing entry and an entry the caller may not see.
	ErrNotFound          = errors.New("expenses: not found")
	ErrStoreUnavailable  = errors.New("expenses: store unavailable")
	ErrTokenInvalid      = errors.New("expenses: token invalid")
	ErrTooManyAttempts   = errors.New("expenses: too many failed login attempts")
	ErrInvalidRole       = errors.New("expenses: invalid role")
	ErrSigningKeyMissing = errors.New("expenses: signing key not configured")
)

// StoreError wraps a failure of a persistence adapter call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError wraps err, or returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
