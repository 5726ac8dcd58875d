package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetbyte/sweetshop/internal/identity/application"
	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

type fakeBuyers struct {
	byEmail map[string]*domain.Buyer
}

func (f *fakeBuyers) Create(ctx context.Context, b *domain.Buyer) error {
	if _, ok := f.byEmail[b.Email]; ok {
		return domain.ErrEmailTaken
	}
	f.byEmail[b.Email] = b
	return nil
}

func (f *fakeBuyers) ByEmail(ctx context.Context, email string) (*domain.Buyer, error) {
	b, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrBuyerNotFound
	}
	return b, nil
}

type fakeSessions struct {
	byToken map[string]domain.Session
}

func (f *fakeSessions) Put(ctx context.Context, token string, s domain.Session, ttl time.Duration) error {
	f.byToken[token] = s
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, token string) (*domain.Session, error) {
	s, ok := f.byToken[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &s, nil
}

func newTestHandler() (*Handler, *fakeSessions) {
	sessions := &fakeSessions{byToken: make(map[string]domain.Session)}
	svc := application.NewService(
		slog.New(slog.DiscardHandler),
		&fakeBuyers{byEmail: make(map[string]*domain.Buyer)},
		sessions,
		time.Hour,
	)
	return NewHandler(slog.New(slog.DiscardHandler), svc), sessions
}

func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	h, sessions := newTestHandler()
	sessions.byToken["good"] = domain.Session{Role: domain.RoleBuyer}
	protected := h.RequireAuth(echoSession())

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h, sessions := newTestHandler()
	sessions.byToken["buyer"] = domain.Session{Role: domain.RoleBuyer}
	sessions.byToken["admin"] = domain.Session{Role: domain.RoleAdmin}
	protected := h.RequireAdmin(echoSession())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer buyer")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
