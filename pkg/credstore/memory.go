package credstore

import (
	"context"
	"sync"
	"time"
)

type jarKey struct {
	name   string
	domain string
	path   string
}

type jarEntry struct {
	value   string
	expires time.Time
	seq     uint64
}

// MemoryStore is a process-local jar. Get returns the most recently written
// unexpired value for a name across all domain/path scopes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[jarKey]jarEntry
	seq     uint64

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[jarKey]jarEntry),
		Now:     time.Now,
	}
}

func (m *MemoryStore) Set(_ context.Context, name, value string, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jarKey{name: name, domain: opts.Domain, path: opts.Path}
	exp := ExpiresAt(opts, m.Now())
	if Expired(exp, m.Now()) {
		delete(m.entries, key)
		return nil
	}

	m.seq++
	m.entries[key] = jarEntry{value: value, expires: exp, seq: m.seq}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	var (
		best  jarEntry
		found bool
	)
	for k, e := range m.entries {
		if k.name != name {
			continue
		}
		if Expired(e.expires, now) {
			delete(m.entries, k)
			continue
		}
		if !found || e.seq > best.seq {
			best, found = e, true
		}
	}

	if !found {
		return "", ErrNotFound
	}
	return best.value, nil
}

func (m *MemoryStore) Remove(ctx context.Context, name string, opts Options) error {
	return m.Set(ctx, name, "", RemoveOptions(opts))
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
