package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-storefront/pkg/domain"
)

func newResetFixture(t *testing.T) (*authFixture, *ResetService, *recordingDispatcher) {
	t.Helper()
	f := newAuthFixture()
	d := &recordingDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewResetService(f.users, f.session, d, &PasswordPolicy{MinLength: 6}, 0, logger)
	svc.now = f.clock.now
	return f, svc, d
}

func TestResetService_ForgotPasswordUnknownEmail(t *testing.T) {
	_, svc, d := newResetFixture(t)

	err := svc.ForgotPassword(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, d.last())
}

func TestResetService_ForgotPasswordMalformedEmail(t *testing.T) {
	_, svc, _ := newResetFixture(t)

	err := svc.ForgotPassword(context.Background(), "nope")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid email address", verr.Message)
}

func TestResetService_TokenWorksExactlyOnce(t *testing.T) {
	f, svc, d := newResetFixture(t)
	ctx := context.Background()

	user, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _, _ = f.password.Login(ctx, "a@x.com", "wrong", IssueSessionOpts{})
	}
	require.True(t, f.users.get(user.ID).IsLocked(f.clock.now()))

	require.NoError(t, svc.ForgotPassword(ctx, "A@x.com"))
	token := d.last()
	require.Len(t, token, 64)
	assert.Equal(t, "a@x.com", d.email)

	stored := f.users.get(user.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.NotEqual(t, token, *stored.ResetTokenHash, "only the hash is persisted")
	assert.True(t, stored.ResetTokenExpiresAt.Equal(f.clock.now().Add(time.Hour)))

	f.clock.advance(59 * time.Minute)
	require.NoError(t, svc.ResetPassword(ctx, token, "newsecret"))

	stored = f.users.get(user.ID)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.AccountLockedUntil)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Equal(t, 0, f.sessions.active(user.ID), "reset revokes existing sessions")

	err = svc.ResetPassword(ctx, token, "another1")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

	_, _, err = f.password.Login(ctx, "a@x.com", "newsecret", IssueSessionOpts{})
	assert.NoError(t, err)
}

func TestResetService_ExpiredToken(t *testing.T) {
	f, svc, d := newResetFixture(t)
	ctx := context.Background()

	_, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "a@x.com"))

	f.clock.advance(time.Hour)
	err = svc.ResetPassword(ctx, d.last(), "newsecret")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestResetService_NewRequestReplacesToken(t *testing.T) {
	f, svc, d := newResetFixture(t)
	ctx := context.Background()

	_, _, err := f.password.Signup(ctx, "a@x.com", "alice", "secret1", IssueSessionOpts{})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "a@x.com"))
	first := d.last()
	require.NoError(t, svc.ForgotPassword(ctx, "a@x.com"))
	second := d.last()

	assert.ErrorIs(t, svc.ResetPassword(ctx, first, "newsecret"), domain.ErrInvalidOrExpiredToken)
	assert.NoError(t, svc.ResetPassword(ctx, second, "newsecret"))
}

func TestResetService_PolicyChecked(t *testing.T) {
	_, svc, _ := newResetFixture(t)

	err := svc.ResetPassword(context.Background(), "sometoken", "123")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.ResetPassword(context.Background(), "", "123456")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
