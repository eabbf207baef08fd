package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"referral-api/internal/user"
)

// fileUser is the on-disk record. The domain model masks the password hash
// from JSON, so the adapter has its own shape that keeps it.
type fileUser struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	ReferralCode string    `json:"myReferralCode"`
	ReferredBy   string    `json:"referredBy"`
	Wallet       int64     `json:"wallet"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type fileCode struct {
	Code      string    `json:"code"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileStore persists users and activation codes as two JSON documents on
// disk, the format the flat-file deployments used. Every mutation rewrites
// the affected file atomically (temp file + rename) under a store-wide
// mutex.
type FileStore struct {
	mu        sync.Mutex
	usersPath string
	codesPath string
	users     []*fileUser
	codes     []*fileCode
}

// NewFileStore loads existing data from usersPath and codesPath, starting
// with empty documents if the files do not exist yet.
func NewFileStore(usersPath, codesPath string) (*FileStore, error) {
	s := &FileStore{
		usersPath: usersPath,
		codesPath: codesPath,
	}

	if err := readJSONFile(usersPath, &s.users); err != nil {
		return nil, fmt.Errorf("failed to load users file: %w", err)
	}
	if err := readJSONFile(codesPath, &s.codes); err != nil {
		return nil, fmt.Errorf("failed to load activation codes file: %w", err)
	}

	return s, nil
}

func (s *FileStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fu := range s.users {
		if fu.Email == email {
			return fu.toModel(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) FindByReferralCode(ctx context.Context, code string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fu := range s.users {
		if fu.ReferralCode == code {
			return fu.toModel(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) FindActivationCode(ctx context.Context, code string) (*user.ActivationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fc := range s.codes {
		if fc.Code == code {
			return &user.ActivationCode{Code: fc.Code, Used: fc.Used, CreatedAt: fc.CreatedAt}, nil
		}
	}
	return nil, ErrCodeNotFound
}

func (s *FileStore) InsertUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users = append(s.users, &fileUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Password:     u.PasswordHash,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
		Wallet:       u.Wallet,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	return s.persistUsers()
}

func (s *FileStore) InsertActivationCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fc := range s.codes {
		if fc.Code == code {
			return ErrDuplicateCode
		}
	}

	s.codes = append(s.codes, &fileCode{Code: code, CreatedAt: time.Now()})
	return s.persistCodes()
}

func (s *FileStore) MarkCodeUsed(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fc := range s.codes {
		if fc.Code == code {
			if fc.Used {
				return ErrCodeAlreadyUsed
			}
			fc.Used = true
			return s.persistCodes()
		}
	}
	return ErrCodeNotFound
}

func (s *FileStore) CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fu := range s.users {
		if fu.ID == userID {
			fu.Wallet += amount
			fu.UpdatedAt = time.Now()
			return s.persistUsers()
		}
	}
	return ErrNotFound
}

func (s *FileStore) CountReferrals(ctx context.Context, referralCode string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, fu := range s.users {
		if fu.ReferredBy == referralCode {
			count++
		}
	}
	return count, nil
}

func (fu *fileUser) toModel() *user.User {
	return &user.User{
		ID:           fu.ID,
		Name:         fu.Name,
		Email:        fu.Email,
		PasswordHash: fu.Password,
		ReferralCode: fu.ReferralCode,
		ReferredBy:   fu.ReferredBy,
		Wallet:       fu.Wallet,
		CreatedAt:    fu.CreatedAt,
		UpdatedAt:    fu.UpdatedAt,
	}
}

func (s *FileStore) persistUsers() error {
	return writeJSONFile(s.usersPath, s.users)
}

func (s *FileStore) persistCodes() error {
	return writeJSONFile(s.codesPath, s.codes)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSONFile writes to a temp file in the target directory and renames it
// into place so a crash mid-write never truncates the document.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
