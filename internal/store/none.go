package store

import (
	"context"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// NoneStore discards readings. It backs the "none" store backend.
type NoneStore struct{}

var _ contract.ReadingStore = &NoneStore{} // Compile-time check

// NewNoneStore returns a store that keeps nothing.
func NewNoneStore() *NoneStore {
	return &NoneStore{}
}

// Record implements the ReadingStore interface.
func (*NoneStore) Record(context.Context, string, schema.SensorReading, schema.RiskVerdict) (int64, error) {
	return 0, nil
}

// List implements the ReadingStore interface.
func (*NoneStore) List(_ context.Context, q schema.ListQuery) (schema.ReadingPage, error) {
	q = q.Normalize()
	return schema.ReadingPage{Page: q.Page, Limit: q.Limit, DeviceFilter: q.DeviceID, Data: []schema.ReadingRecord{}}, nil
}

// Latest implements the ReadingStore interface.
func (*NoneStore) Latest(context.Context, string) (schema.ReadingRecord, error) {
	return schema.ReadingRecord{}, ErrNoData
}

// Devices implements the ReadingStore interface.
func (*NoneStore) Devices(context.Context) ([]schema.DeviceSummary, error) {
	return []schema.DeviceSummary{}, nil
}

// Stats implements the ReadingStore interface.
func (*NoneStore) Stats(_ context.Context, deviceID string) (schema.ReadingStats, error) {
	return schema.ReadingStats{DeviceFilter: deviceID, Signals: map[schema.Signal]schema.SignalStats{}}, nil
}

// Count implements the ReadingStore interface.
func (*NoneStore) Count(context.Context) (int, error) { return 0, nil }

// DeleteOlderThan implements the ReadingStore interface.
func (*NoneStore) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

// DeleteAll implements the ReadingStore interface.
func (*NoneStore) DeleteAll(context.Context) (int64, error) { return 0, nil }

// GetStatus implements the ReadingStore interface.
func (*NoneStore) GetStatus(context.Context) (schema.StoreStatus, error) {
	return schema.StoreStatus{Backend: string(schema.NoneBackend)}, nil
}

// Close implements the ReadingStore interface.
func (*NoneStore) Close() error { return nil }
