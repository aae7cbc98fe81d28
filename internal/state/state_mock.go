package state

import (
	"context"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/mock"
)

// MockStateStore is a mock implementation of StateStore for testing.
type MockStateStore struct {
	mock.Mock
}

var _ contract.StateStore = &MockStateStore{} // Compile-time check

// Load implements the StateStore interface.
func (m *MockStateStore) Load(ctx context.Context, deviceID string) (schema.GatekeeperState, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(schema.GatekeeperState), args.Error(1)
}

// Save implements the StateStore interface.
func (m *MockStateStore) Save(ctx context.Context, deviceID string, st schema.GatekeeperState) error {
	args := m.Called(ctx, deviceID, st)
	return args.Error(0)
}

// Delete implements the StateStore interface.
func (m *MockStateStore) Delete(ctx context.Context, deviceID string) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

// GetStatus implements the StateStore interface.
func (m *MockStateStore) GetStatus(ctx context.Context) (schema.StateStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StateStatus), args.Error(1)
}

// Close implements the StateStore interface.
func (m *MockStateStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
