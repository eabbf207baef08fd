package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess := &Session{ID: "abc", Email: "alice@example.com", CreatedAt: time.Now()}
	require.NoError(t, s.Save(ctx, sess, time.Hour))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting an unknown id is not an error
	assert.NoError(t, s.Delete(ctx, "ghost"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess := &Session{ID: "abc", Email: "alice@example.com", CreatedAt: time.Now()}
	require.NoError(t, s.Save(ctx, sess, -time.Second))

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	created := time.Now().Truncate(time.Second)
	sess := &Session{ID: "abc", Email: "alice@example.com", CreatedAt: created}
	require.NoError(t, s.Save(ctx, sess, time.Hour))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.CreatedAt.Equal(created))

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	sess := &Session{ID: "abc", Email: "alice@example.com", CreatedAt: time.Now()}
	require.NoError(t, s.Save(ctx, sess, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, "session_id", false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := m.Create(ctx, w, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "session_id", cookie.Name)
	assert.Equal(t, sess.ID, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)

	resolved, err := m.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resolved.Email)

	// Destroy removes the record and clears the cookie
	w = httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, w, req))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)

	_, err = m.Resolve(ctx, req)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerResolveWithoutCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, "session_id", false)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	_, err := m.Resolve(context.Background(), req)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerSecureCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, "session_id", true)

	w := httptest.NewRecorder()
	_, err := m.Create(context.Background(), w, "alice@example.com")
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generateSessionID()
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
