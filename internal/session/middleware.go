package session

import (
	"context"
	"errors"
	"net/http"

	"referral-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const sessionContextKey ContextKey = "session"

// Middleware guards routes that need a logged-in user.
type Middleware struct {
	manager *Manager
}

func NewMiddleware(manager *Manager) *Middleware {
	return &Middleware{manager: manager}
}

// RequireSession resolves the session cookie and stores the session in the
// request context; requests without a valid session get 401.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.manager.Resolve(r.Context(), r)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httputil.RespondErrorWithCode(w, "not logged in", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to resolve session", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext extracts the session from the request context
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok
}
