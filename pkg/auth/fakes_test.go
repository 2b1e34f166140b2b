package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) copyOf(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
		if user.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return domain.ErrGoogleIDTaken
		}
	}
	f.users[user.ID] = f.copyOf(user)
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return f.copyOf(u), nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return f.copyOf(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserStore) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return f.copyOf(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserStore) LinkGoogleID(_ context.Context, userID uuid.UUID, googleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.GoogleID = &googleID
	return nil
}

func (f *fakeUserStore) RecordFailedLogin(_ context.Context, userID uuid.UUID, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, nil, domain.ErrUserNotFound
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		t := lockUntil
		u.AccountLockedUntil = &t
	}
	return u.FailedLoginAttempts, u.AccountLockedUntil, nil
}

func (f *fakeUserStore) RecordSuccessfulLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	u.LastLoginAt = &at
	return nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserStore) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt) {
			u.PasswordHash = &passwordHash
			u.ResetTokenHash = nil
			u.ResetTokenExpiresAt = nil
			u.FailedLoginAttempts = 0
			u.AccountLockedUntil = nil
			return u.ID, nil
		}
	}
	return uuid.Nil, domain.ErrInvalidOrExpiredToken
}

func (f *fakeUserStore) get(id uuid.UUID) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyOf(f.users[id])
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	now      func() time.Time
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.Session), now: time.Now}
}

func (f *fakeSessionStore) Create(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *s
	f.sessions[s.ID] = &c
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash && s.RevokedAt == nil {
			c := *s
			return &c, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessionStore) Revoke(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && s.RevokedAt == nil {
		now := f.now()
		s.RevokedAt = &now
	}
	return nil
}

func (f *fakeSessionStore) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash && s.RevokedAt == nil {
			now := f.now()
			s.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionStore) RevokeAllByUserID(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			now := f.now()
			s.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionStore) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		now := f.now()
		s.LastSeenAt = &now
	}
	return nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeSessionStore) active(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			n++
		}
	}
	return n
}

type recordingDispatcher struct {
	mu     sync.Mutex
	email  string
	tokens []string
}

func (d *recordingDispatcher) SendPasswordReset(_ context.Context, email, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.email = email
	d.tokens = append(d.tokens, token)
	return nil
}

func (d *recordingDispatcher) last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tokens) == 0 {
		return ""
	}
	return d.tokens[len(d.tokens)-1]
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
