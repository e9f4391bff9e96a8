// Package dedupe tracks which external tags were already ingested.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records seen keys to ensure at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key so that a failed ingestion can be retried.
	Unrecord(ctx context.Context, key string)

	// Forget removes every key of one session and returns how many were dropped.
	Forget(ctx context.Context, sessionID string) int

	Size() int64
}

// Key composes the dedupe key of an external tag within a session.
func Key(sessionID, externalID string) string {
	return sessionID + "/" + externalID
}

// inMemoryDeduper keeps keys in a map. In bounded mode a ring of slots
// remembers insertion order and the oldest key is evicted once the ring is
// full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 in unbounded mode
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		d.size.Store(int64(len(d.seen)))
		return false
	}

	if old := d.ring[d.next]; old != "" {
		if slot, ok := d.seen[old]; ok && slot == d.next {
			delete(d.seen, old)
		}
	}
	d.ring[d.next] = key
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove(key)
	d.size.Store(int64(len(d.seen)))
}

func (d *inMemoryDeduper) Forget(_ context.Context, sessionID string) int {
	prefix := sessionID + "/"
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for key := range d.seen {
		if strings.HasPrefix(key, prefix) {
			d.remove(key)
			n++
		}
	}
	d.size.Store(int64(len(d.seen)))
	return n
}

// remove must be called with d.mu held.
func (d *inMemoryDeduper) remove(key string) {
	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 && d.ring[slot] == key {
		d.ring[slot] = ""
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
