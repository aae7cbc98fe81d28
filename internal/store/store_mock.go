package store

import (
	"context"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/mock"
)

// MockReadingStore is a mock implementation of ReadingStore for testing.
type MockReadingStore struct {
	mock.Mock
}

var _ contract.ReadingStore = &MockReadingStore{} // Compile-time check

// Record implements the ReadingStore interface.
func (m *MockReadingStore) Record(ctx context.Context, deviceID string, reading schema.SensorReading, verdict schema.RiskVerdict) (int64, error) {
	args := m.Called(ctx, deviceID, reading, verdict)
	return args.Get(0).(int64), args.Error(1)
}

// List implements the ReadingStore interface.
func (m *MockReadingStore) List(ctx context.Context, q schema.ListQuery) (schema.ReadingPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(schema.ReadingPage), args.Error(1)
}

// Latest implements the ReadingStore interface.
func (m *MockReadingStore) Latest(ctx context.Context, deviceID string) (schema.ReadingRecord, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(schema.ReadingRecord), args.Error(1)
}

// Devices implements the ReadingStore interface.
func (m *MockReadingStore) Devices(ctx context.Context) ([]schema.DeviceSummary, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]schema.DeviceSummary)
	return devices, args.Error(1)
}

// Stats implements the ReadingStore interface.
func (m *MockReadingStore) Stats(ctx context.Context, deviceID string) (schema.ReadingStats, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(schema.ReadingStats), args.Error(1)
}

// Count implements the ReadingStore interface.
func (m *MockReadingStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// DeleteOlderThan implements the ReadingStore interface.
func (m *MockReadingStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteAll implements the ReadingStore interface.
func (m *MockReadingStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetStatus implements the ReadingStore interface.
func (m *MockReadingStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ReadingStore interface.
func (m *MockReadingStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
