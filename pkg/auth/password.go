package auth

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const maxUsernameLength = 50

// PasswordService handles password signup and login.
type PasswordService struct {
	users                UserStore
	sessions             *SessionService
	policy               *PasswordPolicy
	blockDisposableEmail bool
	now                  func() time.Time
}

// NewPasswordService creates a new password service.
func NewPasswordService(users UserStore, sessions *SessionService, policy *PasswordPolicy, blockDisposableEmail bool) *PasswordService {
	return &PasswordService{
		users:                users,
		sessions:             sessions,
		policy:               policy,
		blockDisposableEmail: blockDisposableEmail,
		now:                  time.Now,
	}
}

// Signup creates a password user and signs them in.
func (s *PasswordService) Signup(ctx context.Context, email, username, password string, opts IssueSessionOpts) (*domain.User, *domain.IssuedSession, error) {
	if err := ValidateEmail(email, s.blockDisposableEmail); err != nil {
		return nil, nil, domain.NewValidationError("email", err.Error())
	}
	email = NormalizeEmail(email)

	username = SanitizeName(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, nil, domain.NewValidationError("username", "username must be between 1 and 50 characters")
	}

	if err := s.validatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	return s.signIn(ctx, user, now, opts)
}

// Login verifies email and password. Five consecutive mismatches lock the
// account for 15 minutes; while locked the password is not checked at all.
func (s *PasswordService) Login(ctx context.Context, email, password string, opts IssueSessionOpts) (*domain.User, *domain.IssuedSession, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.HasPassword() {
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, nil, &domain.LockedError{MinutesRemaining: user.LockMinutesRemaining(now)}
	}

	if !VerifyPassword(password, *user.PasswordHash) {
		attempts, lockedUntil, err := s.users.RecordFailedLogin(ctx, user.ID, domain.MaxFailedLoginAttempts, now.Add(domain.LockoutDuration))
		if err != nil {
			return nil, nil, err
		}
		if remaining := domain.MaxFailedLoginAttempts - attempts; remaining > 0 {
			return nil, nil, &domain.CredentialsError{RemainingAttempts: remaining}
		}
		locked := &domain.User{AccountLockedUntil: lockedUntil}
		minutes := locked.LockMinutesRemaining(now)
		if minutes == 0 {
			minutes = int(domain.LockoutDuration / time.Minute)
		}
		return nil, nil, &domain.LockedError{MinutesRemaining: minutes}
	}

	return s.signIn(ctx, user, now, opts)
}

// signIn clears the lockout state, stamps the login and issues a session.
func (s *PasswordService) signIn(ctx context.Context, user *domain.User, now time.Time, opts IssueSessionOpts) (*domain.User, *domain.IssuedSession, error) {
	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.FailedLoginAttempts = 0
	user.AccountLockedUntil = nil
	user.LastLoginAt = &now

	issued, err := s.sessions.IssueSession(ctx, user, opts)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

func (s *PasswordService) validatePassword(password string) error {
	if s.policy == nil {
		return nil
	}
	if err := s.policy.ValidatePassword(password); err != nil {
		return domain.NewValidationError("password", err.Error())
	}
	return nil
}
