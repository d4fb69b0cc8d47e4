package session

import (
	"context"
	"sync"

	"github.com/zhixinliu/medichat/backend/internal/model/chat"
)

// MemoryStore implements Store with an in-process map, the default when no
// Redis address is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore bootstraps an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Get retrieves a session copy by identifier.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return copySession(sess), nil
}

// Put stores a session snapshot.
func (s *MemoryStore) Put(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func copySession(sess Session) Session {
	copied := sess
	copied.Messages = append([]chat.Message(nil), sess.Messages...)
	copied.Triage = sess.Triage.Clone()
	return copied
}
