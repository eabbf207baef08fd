package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is an opaque server-side login record. The cookie carries only the
// random id; everything else lives in the store.
type Session struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Store is the session persistence contract. Implementations must expire
// records after the TTL passed to Save.
type Store interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager creates, resolves and destroys sessions and owns the cookie
// handling around them.
type Manager struct {
	store      Store
	ttl        time.Duration
	cookieName string
	secure     bool
}

func NewManager(store Store, ttl time.Duration, cookieName string, secure bool) *Manager {
	return &Manager{
		store:      store,
		ttl:        ttl,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Create establishes a session for email and sets the session cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, email string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	sess := &Session{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now(),
	}

	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.setCookie(w, id)
	return sess, nil
}

// Resolve returns the session bound to the request cookie, or
// ErrSessionNotFound when there is no cookie or the record expired.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}
	return m.store.Get(ctx, cookie.Value)
}

// Destroy removes the session record and clears the cookie. Clearing happens
// even when the record is already gone.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer m.clearCookie(w)

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	if err := m.store.Delete(ctx, cookie.Value); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateSessionID creates a cryptographically secure random session id
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
