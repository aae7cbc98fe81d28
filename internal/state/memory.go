package state

import (
	"context"
	"sync"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

var _ contract.StateStore = &MemoryStore{} // Compile-time check

// MemoryStore keeps state in a map. State does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]schema.GatekeeperState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]schema.GatekeeperState)}
}

// Load implements contract.StateStore.
func (m *MemoryStore) Load(_ context.Context, deviceID string) (schema.GatekeeperState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.states[deviceID]), nil
}

// Save implements contract.StateStore.
func (m *MemoryStore) Save(_ context.Context, deviceID string, state schema.GatekeeperState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[deviceID] = copyState(state)
	return nil
}

// Delete implements contract.StateStore.
func (m *MemoryStore) Delete(_ context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, deviceID)
	return nil
}

// GetStatus implements contract.StateStore.
func (m *MemoryStore) GetStatus(_ context.Context) (schema.StateStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return schema.StateStatus{Backend: string(schema.MemoryState), Devices: len(m.states)}, nil
}

// Close implements contract.StateStore.
func (m *MemoryStore) Close() error { return nil }
