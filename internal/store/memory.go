package store

import (
	"context"
	"sort"
	"sync"

	"github.com/deepfates/silicon/internal/models"
)

// MemoryStore is an in-memory RecordStore for tests and small vaults.
// Records are deep-copied on the way in and out so callers cannot observe
// partial writes.
type MemoryStore struct {
	records map[string]*models.DocumentRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.DocumentRecord)}
}

// Get returns the record for path.
func (m *MemoryStore) Get(ctx context.Context, path string) (*models.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Put replaces the record for rec.Path.
func (m *MemoryStore) Put(ctx context.Context, rec *models.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Path] = rec.Clone()
	return nil
}

// Delete removes the record for path.
func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, path)
	return nil
}

// Paths returns all stored identities in sorted order.
func (m *MemoryStore) Paths(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.records))
	for p := range m.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Scan calls fn for every record in path order.
func (m *MemoryStore) Scan(ctx context.Context, fn func(rec *models.DocumentRecord) error) error {
	paths, _ := m.Paths(ctx)
	for _, p := range paths {
		m.mu.RLock()
		rec, ok := m.records[p]
		var clone *models.DocumentRecord
		if ok {
			clone = rec.Clone()
		}
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fn(clone); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
