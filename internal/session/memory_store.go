package session

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore holds sessions in process memory with lazy expiry. Used for
// redis-less deployments and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = memoryRecord{
		sess:      *sess,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(rec.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}

	sess := rec.sess
	return &sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
