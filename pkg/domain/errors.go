package domain

import (
	"errors"
	"fmt"
)

// Authentication errors
var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountLocked         = errors.New("account temporarily locked due to multiple failed login attempts")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUnauthorized          = errors.New("authentication required")
	ErrForbidden             = errors.New("access denied")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExpired        = errors.New("session expired")
	ErrSessionRevoked        = errors.New("session revoked")
	ErrInvalidToken          = errors.New("invalid token")
	ErrGoogleIDTaken         = errors.New("google identity already linked to another user")
)

// Lookup errors. Each specific error wraps ErrNotFound.
var (
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
)

// Business rule errors
var (
	ErrValidation    = errors.New("validation failed")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError describes malformed input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CredentialsError is returned on a password mismatch while the account is
// still below the lockout threshold. It matches ErrInvalidCredentials.
type CredentialsError struct {
	RemainingAttempts int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid email or password. %d attempt(s) remaining before account lockout.", e.RemainingAttempts)
}

func (e *CredentialsError) Unwrap() error {
	return ErrInvalidCredentials
}

// LockedError is returned while an account is locked. It matches ErrAccountLocked.
type LockedError struct {
	MinutesRemaining int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked due to multiple failed login attempts. Please try again in %d minute(s).", e.MinutesRemaining)
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}
