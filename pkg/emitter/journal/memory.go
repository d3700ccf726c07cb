package journal

import (
	"context"
	"sort"
	"sync"
)

// DefaultMaxSize caps an in-memory journal when no explicit size is given.
const DefaultMaxSize = 10000

// MemoryStore is an in-memory journal for testing and single-instance use.
// Data is lost when the process exits. When full, the oldest record is
// evicted to make room.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*FailedEmission // keyed by emission ID
	order   []string                   // emission IDs, oldest first
	maxSize int
	closed  bool
}

// NewMemoryStore creates a new in-memory journal.
// maxSize <= 0 uses DefaultMaxSize.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MemoryStore{
		records: make(map[string]*FailedEmission),
		maxSize: maxSize,
	}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, failed *FailedEmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, exists := m.records[failed.EmissionID]; !exists {
		for len(m.records) >= m.maxSize && len(m.order) > 0 {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.records, oldest)
		}
		m.order = append(m.order, failed.EmissionID)
	}
	m.records[failed.EmissionID] = failed
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, emissionID string) (*FailedEmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	failed, ok := m.records[emissionID]
	if !ok {
		return nil, ErrNotFound
	}
	return failed, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, eventType string, limit int) ([]*FailedEmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	matches := make([]*FailedEmission, 0, len(m.records))
	for _, failed := range m.records {
		if eventType == "" || failed.EventType == eventType {
			matches = append(matches, failed)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].OccurredAt.After(matches[j].OccurredAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.records), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, emissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, ok := m.records[emissionID]; !ok {
		return nil
	}
	delete(m.records, emissionID)
	for i, id := range m.order {
		if id == emissionID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.records = make(map[string]*FailedEmission)
	m.order = nil
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
