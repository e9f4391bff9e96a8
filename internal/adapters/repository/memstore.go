package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/pitchtag/pkg/metrics"
)

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{sessions: make(map[string]*Session)}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateActiveSessions(0)
	return s
}

func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		metrics.RecordErrorByComponent("repository", "exists")
		return ErrExists
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordSessionRejected()
		return ErrLimitReached
	}
	s.sessions[sess.ID] = sess
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

func (s *MemoryStore) List(_ context.Context) []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
