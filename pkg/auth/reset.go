package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tendant/simple-storefront/pkg/domain"
)

const (
	resetTokenLen = 32

	// DefaultResetTokenTTL is how long a reset link stays usable.
	DefaultResetTokenTTL = time.Hour
)

// ResetDispatcher delivers a raw reset token to the account owner.
type ResetDispatcher interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// ResetService runs the forgot/reset password flow.
type ResetService struct {
	users      UserStore
	sessions   *SessionService
	dispatcher ResetDispatcher
	policy     *PasswordPolicy
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewResetService creates a new reset service.
func NewResetService(users UserStore, sessions *SessionService, dispatcher ResetDispatcher, policy *PasswordPolicy, ttl time.Duration, logger *slog.Logger) *ResetService {
	if ttl == 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetService{
		users:      users,
		sessions:   sessions,
		dispatcher: dispatcher,
		policy:     policy,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// ForgotPassword issues a new reset token for a known email. The result is
// the same whether or not the account exists; only a malformed address is
// reported back.
func (s *ResetService) ForgotPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email, false); err != nil {
		return domain.NewValidationError("email", "Invalid email address")
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := GenerateToken(resetTokenLen)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, HashToken(token), s.now().Add(s.ttl)); err != nil {
		return err
	}

	if err := s.dispatcher.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error("failed to dispatch password reset", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Every
// session of the account is revoked afterwards.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.NewValidationError("token", "Reset token is required")
	}
	if s.policy != nil {
		if err := s.policy.ValidatePassword(newPassword); err != nil {
			return domain.NewValidationError("password", err.Error())
		}
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.users.ConsumeResetToken(ctx, HashToken(token), hash, s.now())
	if err != nil {
		return err
	}

	if err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions after password reset", "user_id", userID, "error", err)
	}
	return nil
}
