// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/firewatch/schema"
)

// ReadingStore defines the persistence collaborator for readings and their verdicts.
// This allows the monitor and server to be tested without a real database.
type ReadingStore interface {
	// Record stores a reading together with its verdict and returns the new row ID.
	Record(ctx context.Context, deviceID string, reading schema.SensorReading, verdict schema.RiskVerdict) (int64, error)

	// List returns one page of readings, newest first.
	List(ctx context.Context, q schema.ListQuery) (schema.ReadingPage, error)

	// Latest returns the newest reading, optionally for one device.
	Latest(ctx context.Context, deviceID string) (schema.ReadingRecord, error)

	// Devices returns a summary per device, most recently active first.
	Devices(ctx context.Context) ([]schema.DeviceSummary, error)

	// Stats aggregates readings, optionally for one device.
	Stats(ctx context.Context, deviceID string) (schema.ReadingStats, error)

	// Count returns the number of stored readings.
	Count(ctx context.Context) (int, error)

	// DeleteOlderThan removes readings observed before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteAll removes every reading and resets the ID sequence.
	DeleteAll(ctx context.Context) (int64, error)

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// AlertSink defines a delivery channel for alerts. Delivery is best-effort.
type AlertSink interface {
	Name() string
	Send(ctx context.Context, deviceID string, verdict schema.RiskVerdict, message string) error
}

// StateStore keeps gatekeeper state per device.
// Implementations need not be safe for concurrent use on the same device;
// the gatekeeper serializes access per device.
type StateStore interface {
	// Load returns the state of a device, or a zero state when unknown.
	Load(ctx context.Context, deviceID string) (schema.GatekeeperState, error)

	// Save replaces the state of a device.
	Save(ctx context.Context, deviceID string, state schema.GatekeeperState) error

	// Delete drops the state of a device.
	Delete(ctx context.Context, deviceID string) error

	// GetStatus returns status information about the state backend.
	GetStatus(ctx context.Context) (schema.StateStatus, error)

	// Close releases resources.
	Close() error
}

// ReadingProcessor accepts a reading from a transport and returns the outcome.
type ReadingProcessor interface {
	Process(ctx context.Context, reading schema.SensorReading) (Outcome, error)
}

// Outcome is what the transport reports back for one ingested reading.
type Outcome struct {
	DataID   int64           `json:"data_id"`
	Decision schema.Decision `json:"decision"`
	Message  string          `json:"message"`
	Stored   bool            `json:"stored"`
}
