package schema

import "time"

// StoreStatus represents the status of the reading store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalReadings   int       `json:"total_readings"`
	DeviceCount     int       `json:"device_count"`
	LastReadingID   int64     `json:"last_reading_id"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	SchemaVersion   uint      `json:"schema_version"`
	Dirty           bool      `json:"dirty"`
}

// StateStatus represents the status of the gatekeeper state backend.
type StateStatus struct {
	Backend string `json:"backend"`
	Devices int    `json:"devices"`
}
