package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const (
	sessionTokenLen = 32

	// Default token lifetimes
	DefaultAccessTokenTTL = 15 * time.Minute
	DefaultSessionTTL     = 7 * 24 * time.Hour

	lastSeenInterval = time.Minute
)

// SessionConfig holds session configuration.
type SessionConfig struct {
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	JWTSecret      []byte
	Issuer         string
}

// SessionService is the single place sessions are issued, resolved and revoked.
type SessionService struct {
	config   SessionConfig
	sessions SessionStore
	now      func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig, sessions SessionStore) *SessionService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.SessionTTL == 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	return &SessionService{
		config:   config,
		sessions: sessions,
		now:      time.Now,
	}
}

// SessionTTL returns the server-side session lifetime.
func (s *SessionService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// IssueSessionOpts holds options for session issuance.
type IssueSessionOpts struct {
	IP        string
	UserAgent string
}

// AccessTokenClaims represents the claims in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Email     string `json:"email,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

// IssueSession creates a server-side session for user and signs an access
// token bound to it.
func (s *SessionService) IssueSession(ctx context.Context, user *domain.User, opts IssueSessionOpts) (*domain.IssuedSession, error) {
	now := s.now()

	// Session token is opaque and stored hashed
	sessionToken, err := GenerateToken(sessionTokenLen)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: HashToken(sessionToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	if opts.IP != "" || opts.UserAgent != "" {
		metadata, _ := json.Marshal(domain.SessionMetadata{IP: opts.IP, UserAgent: opts.UserAgent})
		session.Metadata = metadata
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	accessTokenExpiry := now.Add(s.config.AccessTokenTTL)
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessTokenExpiry),
			Issuer:    s.config.Issuer,
		},
		SessionID: session.ID.String(),
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &domain.IssuedSession{
		SessionID:    session.ID,
		SessionToken: sessionToken,
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
		ExpiresAt:    accessTokenExpiry,
	}, nil
}

// ResolveToken returns the live session behind either a signed access token
// or an opaque session token. Revoked or expired sessions are rejected even
// when the access token itself has not expired yet.
func (s *SessionService) ResolveToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	var (
		session *domain.Session
		err     error
	)
	if strings.Count(token, ".") == 2 {
		claims, verr := s.ValidateAccessToken(token)
		if verr != nil {
			return nil, verr
		}
		sid, perr := uuid.Parse(claims.SessionID)
		if perr != nil {
			return nil, domain.ErrInvalidToken
		}
		session, err = s.sessions.GetByID(ctx, sid)
	} else {
		session, err = s.sessions.GetByTokenHash(ctx, HashToken(token))
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !session.IsValid(now) {
		if session.RevokedAt != nil {
			return nil, domain.ErrSessionRevoked
		}
		return nil, domain.ErrSessionExpired
	}

	if session.LastSeenAt == nil || now.Sub(*session.LastSeenAt) > lastSeenInterval {
		_ = s.sessions.UpdateLastSeen(ctx, session.ID)
	}
	return session, nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *SessionService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// RevokeSession revokes a session by ID.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// RevokeToken revokes the session behind an opaque session token.
func (s *SessionService) RevokeToken(ctx context.Context, sessionToken string) error {
	return s.sessions.RevokeByTokenHash(ctx, HashToken(sessionToken))
}

// RevokeAllSessions revokes all sessions for a user.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeAllByUserID(ctx, userID)
}

// IsAuthError reports whether err means the caller is simply not signed in,
// as opposed to a store failure.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrSessionExpired) ||
		errors.Is(err, domain.ErrSessionRevoked)
}
