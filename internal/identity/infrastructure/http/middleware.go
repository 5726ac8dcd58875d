package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

type ctxKey int

const sessionKey ctxKey = 0

// WithSession returns a copy of ctx carrying an authenticated session.
func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFrom reports the session an upstream middleware attached.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(domain.Session)
	return sess, ok
}

// RequireAuth resolves the bearer token and attaches the session; requests
// without a valid token never reach the handler.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		sess, err := h.service.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthenticated", "authorization token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), *sess)))
	})
}

// RequireAdmin stacks on RequireAuth and gates admin-only routes.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok || sess.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return ""
}
