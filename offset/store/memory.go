// Package store provides in-memory offset.StateStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	states map[string][]byte

	// PutErr, when set, is returned by every PutState call.
	PutErr error
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string][]byte)}
}

func (m *Memory) GetState(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.states[key]
	if !ok {
		return nil, offset.ErrNoSavedState
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *Memory) PutState(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return m.PutErr
	}
	stored := make([]byte, len(payload))
	copy(stored, payload)
	m.states[key] = stored
	return nil
}

// Keys returns the number of stored payloads.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
