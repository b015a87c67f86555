package models

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is the single undifferentiated authentication
// failure. Callers must not be able to tell a wrong password from an
// unknown email.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrSessionInvalid is returned for any session that cannot be used:
// never existed, expired, or revoked. The cases are deliberately folded
// into one error so they cannot be distinguished.
var ErrSessionInvalid = errors.New("session expired or invalid")

// DuplicateEmailError – returned when registration hits the unique email
// constraint. Supports errors.As and errors.Is.
type DuplicateEmailError struct {
	err error
}

// Error implements the error interface.
func (e *DuplicateEmailError) Error() string {
	return "email already registered"
}

func (e *DuplicateEmailError) Unwrap() error {
	return e.err
}

func (e *DuplicateEmailError) Is(target error) bool {
	_, ok := target.(*DuplicateEmailError)
	return ok
}

// ErrDuplicateEmail is a sentinel for use with errors.Is.
var ErrDuplicateEmail = &DuplicateEmailError{}

// NewDuplicateEmailError wraps the underlying constraint error.
func NewDuplicateEmailError(err error) error {
	return &DuplicateEmailError{err: err}
}

// WeakCredentialError – returned when a password fails the minimum
// strength policy. Supports errors.As and errors.Is.
type WeakCredentialError struct {
	Reason string
}

// Error implements the error interface.
func (e *WeakCredentialError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("weak credential: %s", e.Reason)
	}
	return "weak credential"
}

func (e *WeakCredentialError) Is(target error) bool {
	_, ok := target.(*WeakCredentialError)
	return ok
}

// ErrWeakCredential is a sentinel for use with errors.Is.
var ErrWeakCredential = &WeakCredentialError{}

// NewWeakCredentialError creates a new WeakCredentialError with the given reason.
func NewWeakCredentialError(reason string) error {
	return &WeakCredentialError{Reason: reason}
}

// ValidationError – for invalid parameters or business rule violations.
// Supports errors.As and errors.Is.
type ValidationError struct {
	msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrValidation is a sentinel for use with errors.Is.
var ErrValidation = &ValidationError{}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// StoreUnavailableError – for failures interacting with the persistence
// layer. Surfaced to users as a generic 5xx, never with internal detail.
// Supports errors.As, errors.Is and errors.Unwrap.
type StoreUnavailableError struct {
	err error
}

// Error implements the error interface.
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.err
}

func (e *StoreUnavailableError) Is(target error) bool {
	_, ok := target.(*StoreUnavailableError)
	return ok
}

// ErrStoreUnavailable is a sentinel for use with errors.Is.
var ErrStoreUnavailable = &StoreUnavailableError{}

// NewStoreUnavailableError wraps a persistence-layer failure.
func NewStoreUnavailableError(err error) error {
	return &StoreUnavailableError{err: err}
}
