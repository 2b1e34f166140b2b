package me

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/pkg/domain"
)

type stubUsers map[uuid.UUID]*domain.User

func (s stubUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type brokenUsers struct{}

func (brokenUsers) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, errors.New("db down")
}

func TestGetMe(t *testing.T) {
	googleID := "g-123"
	user := &domain.User{ID: uuid.New(), Email: "a@x.com", Username: "alice", GoogleID: &googleID}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	run := func(users middleware.UserLookup, p *middleware.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if p != nil {
			req = req.WithContext(middleware.WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		NewHandler(logger, users).GetMe(rec, req)
		return rec
	}

	rec := run(stubUsers{user.ID: user}, &middleware.Principal{UserID: user.ID})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"`+user.ID.String()+`","email":"a@x.com","username":"alice","googleId":"g-123","isAdmin":false}}`, rec.Body.String())

	rec = run(stubUsers{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())

	rec = run(stubUsers{}, &middleware.Principal{UserID: uuid.New()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	rec = run(brokenUsers{}, &middleware.Principal{UserID: user.ID})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
