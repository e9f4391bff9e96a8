// Package repository holds open tagging sessions in memory.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/tagging"
)

// Session is one open tagging session. Its engine is not safe for
// concurrent use, so every access goes through Do.
type Session struct {
	ID        string
	Sport     string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *tagging.Engine
	ingester *ingest.Ingester
	updated  time.Time
}

// NewSession wraps an engine and the ingester for the same template.
func NewSession(id string, engine *tagging.Engine, ingester *ingest.Ingester, now time.Time) *Session {
	return &Session{
		ID:        id,
		Sport:     engine.Template().Sport,
		CreatedAt: now,
		engine:    engine,
		ingester:  ingester,
		updated:   now,
	}
}

// Do runs fn with exclusive access to the session state.
func (s *Session) Do(fn func(e *tagging.Engine, in *ingest.Ingester) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = time.Now()
	return fn(s.engine, s.ingester)
}

// UpdatedAt returns when the session was last accessed through Do.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// Store provides access to open sessions.
type Store interface {
	// Create adds s. Returns ErrLimitReached when the cap is hit and
	// ErrExists when the ID is taken.
	Create(ctx context.Context, s *Session) error

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the session or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all sessions ordered by creation time.
	List(ctx context.Context) []*Session

	// Count returns the number of open sessions.
	Count(ctx context.Context) int
}
