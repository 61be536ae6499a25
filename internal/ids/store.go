package ids

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/outfitter-dev/waymark/internal/apperr"
)

// Entry is one reserved id.
type Entry struct {
	ID          string    `json:"id"`
	File        string    `json:"file"`
	Line        int       `json:"line"`
	Fingerprint string    `json:"fingerprint"`
	ReservedAt  time.Time `json:"reserved_at"`
}

// Store persists id reservations.
//
// Reserve must succeed when id is free or already held by an entry with the
// same file and fingerprint, and fail with apperr.ErrAlreadyExists
// otherwise. Lookup returns apperr.ErrNotFound for unknown ids.
type Store interface {
	Reserve(ctx context.Context, e Entry) error
	Lookup(ctx context.Context, id string) (Entry, error)
	Release(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Reserve implements Store.
func (m *MemoryStore) Reserve(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[e.ID]; ok && (cur.File != e.File || cur.Fingerprint != e.Fingerprint) {
		return apperr.ErrAlreadyExists
	}
	m.entries[e.ID] = e
	return nil
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(_ context.Context, id string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, apperr.ErrNotFound
	}
	return e, nil
}

// Release implements Store.
func (m *MemoryStore) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// defaultAttempts bounds re-salting on collision.
const defaultAttempts = 16

// Reserver hands out ids, re-salting the derivation until the store
// accepts one.
type Reserver struct {
	gen      *Generator
	store    Store
	attempts int
	now      func() time.Time
}

// NewReserver returns a Reserver over store.
func NewReserver(gen *Generator, store Store) *Reserver {
	return &Reserver{gen: gen, store: store, attempts: defaultAttempts, now: time.Now}
}

// Reserve returns an id for the waymark at file:line with fingerprint.
// Reserving the same waymark twice returns the same id. Ids in inUse are
// skipped; callers pass the ids the file already carries so two identical
// waymarks in one file never share an id.
func (r *Reserver) Reserve(ctx context.Context, file string, line int, fingerprint string, inUse ...string) (string, error) {
	for salt := 0; salt < r.attempts; salt++ {
		id := r.gen.Generate(file, fingerprint, salt)
		if slices.Contains(inUse, id) {
			continue
		}
		err := r.store.Reserve(ctx, Entry{
			ID:          id,
			File:        file,
			Line:        line,
			Fingerprint: fingerprint,
			ReservedAt:  r.now().UTC(),
		})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, apperr.ErrAlreadyExists) {
			return "", fmt.Errorf("ids: reserve: %w", err)
		}
	}
	return "", fmt.Errorf("ids: no free id for %s:%d after %d attempts: %w", file, line, r.attempts, apperr.ErrConflict)
}

// Release frees id.
func (r *Reserver) Release(ctx context.Context, id string) error {
	return r.store.Release(ctx, id)
}
