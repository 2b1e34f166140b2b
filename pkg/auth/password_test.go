package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-storefront/pkg/domain"
)

type authFixture struct {
	clock    *clock
	users    *fakeUserStore
	sessions *fakeSessionStore
	session  *SessionService
	password *PasswordService
}

func newAuthFixture() *authFixture {
	c := newClock()
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	sessions.now = c.now

	sessionSvc := NewSessionService(SessionConfig{JWTSecret: []byte("test-secret"), Issuer: "storefront"}, sessions)
	sessionSvc.now = c.now

	passwordSvc := NewPasswordService(users, sessionSvc, &PasswordPolicy{MinLength: 6}, false)
	passwordSvc.now = c.now

	return &authFixture{clock: c, users: users, sessions: sessions, session: sessionSvc, password: passwordSvc}
}

func TestPasswordService_SignupThenLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, issued, err := f.password.Signup(ctx, " A@X.com ", "alice", "secret1", IssueSessionOpts{IP: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)
	assert.NotNil(t, user.LastLoginAt)

	loggedIn, issued, err := f.password.Login(ctx, "a@x.com", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.False(t, loggedIn.Public().IsAdmin)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.Equal(t, 2, f.sessions.count())
}

func TestPasswordService_SignupValidation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		password string
		field    string
	}{
		{"bad email", "not-an-email", "alice", "secret1", "email"},
		{"empty username", "a@x.com", "   ", "secret1", "username"},
		{"long username", "a@x.com", strings.Repeat("a", 51), "secret1", "username"},
		{"short password", "a@x.com", "alice", "12345", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.password.Signup(ctx, tt.email, tt.username, tt.password, IssueSessionOpts{})
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPasswordService_SignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)

	_, _, err = f.password.Signup(ctx, "A@x.com", "alice2", "secret2", IssueSessionOpts{})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestPasswordService_LoginUnknownOrPasswordless(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, _, err := f.password.Login(ctx, "nobody@x.com", "whatever", IssueSessionOpts{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, f.users.Create(ctx, &domain.User{ID: uuid.New(), Email: "oauth@x.com", Username: "o"}))
	_, _, err = f.password.Login(ctx, "oauth@x.com", "whatever", IssueSessionOpts{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	var cerr *domain.CredentialsError
	assert.False(t, errors.As(err, &cerr), "passwordless accounts must not count attempts")
}

func TestPasswordService_LockoutAfterFiveFailures(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	sessionsBefore := f.sessions.count()

	for i := 1; i <= 4; i++ {
		_, _, err := f.password.Login(ctx, "a@x.com", "wrong", IssueSessionOpts{})
		var cerr *domain.CredentialsError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, 5-i, cerr.RemainingAttempts)
	}

	_, _, err = f.password.Login(ctx, "a@x.com", "wrong", IssueSessionOpts{})
	var lerr *domain.LockedError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 15, lerr.MinutesRemaining)

	f.clock.advance(time.Minute)
	_, issued, err := f.password.Login(ctx, "a@x.com", "secret1", IssueSessionOpts{})
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
	assert.Equal(t, 14, lerr.MinutesRemaining)
	assert.Nil(t, issued)
	assert.Equal(t, sessionsBefore, f.sessions.count())

	stored := f.users.get(user.ID)
	assert.Equal(t, 5, stored.FailedLoginAttempts, "locked logins must not touch the counter")
}

func TestPasswordService_LockExpiresAndSuccessClearsState(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _, _ = f.password.Login(ctx, "a@x.com", "wrong", IssueSessionOpts{})
	}

	f.clock.advance(domain.LockoutDuration + time.Second)
	_, issued, err := f.password.Login(ctx, "a@x.com", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	require.NotNil(t, issued)

	stored := f.users.get(user.ID)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.AccountLockedUntil)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("TestPassword123")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=1,p=4$")

	assert.True(t, VerifyPassword("TestPassword123", hash))
	assert.False(t, VerifyPassword("testpassword123", hash))
	assert.False(t, VerifyPassword("TestPassword123", "not-a-hash"))
	assert.False(t, VerifyPassword("TestPassword123", "$argon2id$v=19$m=65536,t=1,p=4$@@$@@"))

	other, err := HashPassword("TestPassword123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestGenerateAndHashToken(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, a, HashToken(a))
}
