package sink

import (
	"context"
	"sync"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// Memory keeps registrations in process memory. Useful for local development
// and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]domain.RegistrationRecord
}

// NewMemory constructs an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]domain.RegistrationRecord)}
}

// Record stores the registration under its tracking id.
func (m *Memory) Record(_ context.Context, rec domain.RegistrationRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return rec.ID, nil
}

// Get returns the stored record for a tracking id if present.
func (m *Memory) Get(id string) (*domain.RegistrationRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, false
	}
	copy := rec
	return &copy, true
}
