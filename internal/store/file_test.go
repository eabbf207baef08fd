package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string, string) {
	t.Helper()

	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	codesPath := filepath.Join(dir, "codes.json")

	s, err := NewFileStore(usersPath, codesPath)
	require.NoError(t, err)
	return s, usersPath, codesPath
}

func TestFileStoreStartsEmpty(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindActivationCode(ctx, "ABC123")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	s, usersPath, codesPath := newTestFileStore(t)
	ctx := context.Background()

	u := newUser("alice@example.com", "AAAAAA", "")
	require.NoError(t, s.InsertUser(ctx, u))
	require.NoError(t, s.InsertActivationCode(ctx, "ABC123"))
	require.NoError(t, s.MarkCodeUsed(ctx, "ABC123"))
	require.NoError(t, s.CreditWallet(ctx, u.ID, 1000))

	// A fresh store reading the same files sees everything, including
	// the password hash the JSON model of the domain type would hide.
	reopened, err := NewFileStore(usersPath, codesPath)
	require.NoError(t, err)

	loaded, err := reopened.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loaded.ID)
	assert.Equal(t, "$2a$10$hash", loaded.PasswordHash)
	assert.Equal(t, int64(1000), loaded.Wallet)

	code, err := reopened.FindActivationCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, code.Used)
}

func TestFileStoreDuplicates(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUser(ctx, newUser("alice@example.com", "AAAAAA", "")))
	assert.ErrorIs(t, s.InsertUser(ctx, newUser("alice@example.com", "BBBBBB", "")), ErrDuplicateEmail)

	require.NoError(t, s.InsertActivationCode(ctx, "ABC123"))
	assert.ErrorIs(t, s.InsertActivationCode(ctx, "ABC123"), ErrDuplicateCode)
}

func TestFileStoreActivationCodeSingleUse(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertActivationCode(ctx, "ABC123"))
	require.NoError(t, s.MarkCodeUsed(ctx, "ABC123"))
	assert.ErrorIs(t, s.MarkCodeUsed(ctx, "ABC123"), ErrCodeAlreadyUsed)
	assert.ErrorIs(t, s.MarkCodeUsed(ctx, "NOPE"), ErrCodeNotFound)
}

func TestFileStoreCountReferrals(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUser(ctx, newUser("alice@example.com", "AAAAAA", "")))
	require.NoError(t, s.InsertUser(ctx, newUser("bob@example.com", "BBBBBB", "AAAAAA")))

	count, err := s.CountReferrals(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFileStoreCreatesDataDirectory(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "data", "users.json")
	codesPath := filepath.Join(dir, "data", "codes.json")

	s, err := NewFileStore(usersPath, codesPath)
	require.NoError(t, err)

	require.NoError(t, s.InsertActivationCode(context.Background(), "ABC123"))

	_, err = os.Stat(codesPath)
	assert.NoError(t, err)
}

func TestFileStoreTolerantOfEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	codesPath := filepath.Join(dir, "codes.json")
	require.NoError(t, os.WriteFile(usersPath, nil, 0o644))
	require.NoError(t, os.WriteFile(codesPath, nil, 0o644))

	s, err := NewFileStore(usersPath, codesPath)
	require.NoError(t, err)

	_, err = s.FindByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
