package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Lockout policy
const (
	MaxFailedLoginAttempts = 5
	LockoutDuration        = 15 * time.Minute
)

// User represents the account.
type User struct {
	ID                  uuid.UUID
	Email               string
	Username            string
	PasswordHash        *string
	GoogleID            *string
	IsAdmin             bool
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsLocked returns true if the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	if u.AccountLockedUntil == nil {
		return false
	}
	return now.Before(*u.AccountLockedUntil)
}

// LockMinutesRemaining returns the whole minutes, rounded up, until the lock lifts.
func (u *User) LockMinutesRemaining(now time.Time) int {
	if !u.IsLocked(now) {
		return 0
	}
	return int(math.Ceil(u.AccountLockedUntil.Sub(now).Minutes()))
}

// PublicUser is the user shape returned to clients. It never carries secrets.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	GoogleID *string   `json:"googleId,omitempty"`
	IsAdmin  bool      `json:"isAdmin"`
}

// Public returns the client-safe view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		GoogleID: u.GoogleID,
		IsAdmin:  u.IsAdmin,
	}
}

// ParseAdminFlag reads the persisted admin flag. Only "true" grants admin.
func ParseAdminFlag(v *string) bool {
	return v != nil && *v == "true"
}

// FormatAdminFlag is the persisted form of the admin flag.
func FormatAdminFlag(isAdmin bool) string {
	if isAdmin {
		return "true"
	}
	return "false"
}
