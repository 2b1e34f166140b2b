package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session represents a server-side authentication session.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastSeenAt *time.Time
	Metadata   json.RawMessage
}

// SessionMetadata holds optional session context.
type SessionMetadata struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// IsValid checks if the session is valid (not expired and not revoked).
func (s *Session) IsValid(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// IssuedSession is what a successful signup, login or OAuth callback hands back.
type IssuedSession struct {
	SessionID    uuid.UUID
	SessionToken string
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	ExpiresAt    time.Time
}
