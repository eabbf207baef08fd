package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"referral-api/internal/user"
)

// MemoryStore keeps all records in process memory. Used as a backend for
// small deployments and as the store double in tests. A single mutex
// serializes writes, which is the whole consistency story this workload
// needs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
	codes map[string]*user.ActivationCode
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]*user.User),
		codes: make(map[string]*user.ActivationCode),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByReferralCode(ctx context.Context, code string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ReferralCode == code {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindActivationCode(ctx context.Context, code string) (*user.ActivationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ac, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *ac
	return &cp, nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, u *user.User) error {
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

	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *MemoryStore) InsertActivationCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code]; ok {
		return ErrDuplicateCode
	}
	s.codes[code] = &user.ActivationCode{Code: code, CreatedAt: time.Now()}
	return nil
}

func (s *MemoryStore) MarkCodeUsed(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.codes[code]
	if !ok {
		return ErrCodeNotFound
	}
	if ac.Used {
		return ErrCodeAlreadyUsed
	}
	ac.Used = true
	return nil
}

func (s *MemoryStore) CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Wallet += amount
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CountReferrals(ctx context.Context, referralCode string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.users {
		if u.ReferredBy == referralCode {
			count++
		}
	}
	return count, nil
}

func copyUser(u *user.User) *user.User {
	cp := *u
	return &cp
}
