package schema

import "time"

// ReadingRecord represents a row from the sensor_data table.
type ReadingRecord struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	ECO2        *float64  `json:"eco2"`
	TVOC        *float64  `json:"tvoc"`
	ObservedAt  time.Time `json:"timestamp"`
	RiskScore   int       `json:"risk_score"`
	RiskLevel   Level     `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reading converts the stored row back into an engine reading.
func (r ReadingRecord) Reading() SensorReading {
	at := r.ObservedAt
	return SensorReading{
		DeviceID:    r.DeviceID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		ECO2:        r.ECO2,
		TVOC:        r.TVOC,
		ObservedAt:  &at,
	}
}

// ListQuery selects a page of readings, newest first.
type ListQuery struct {
	Page     int
	Limit    int
	DeviceID string
}

// Default paging values.
const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Normalize fills in paging defaults and clamps the limit.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset returns the row offset of the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ReadingPage is one page of stored readings.
type ReadingPage struct {
	TotalCount   int             `json:"total_count"`
	Page         int             `json:"page"`
	Limit        int             `json:"limit"`
	DeviceFilter string          `json:"device_filter,omitempty"`
	Data         []ReadingRecord `json:"data"`
}

// DeviceSummary aggregates the rows of a single device.
type DeviceSummary struct {
	DeviceID  string    `json:"device_id"`
	DataCount int       `json:"data_count"`
	FirstData time.Time `json:"first_data"`
	LastData  time.Time `json:"last_data"`
}

// SignalStats holds the aggregate of one signal column.
// Fields are nil when the column has no values.
type SignalStats struct {
	Avg *float64 `json:"avg"`
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// ReadingStats aggregates stored readings, optionally for one device.
type ReadingStats struct {
	TotalRecords int                    `json:"total_records"`
	DeviceCount  int                    `json:"device_count"`
	Signals      map[Signal]SignalStats `json:"signals"`
	EarliestData *time.Time             `json:"earliest_data"`
	LatestData   *time.Time             `json:"latest_data"`
	DeviceFilter string                 `json:"device_filter,omitempty"`
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	TotalBefore int       `json:"total_before"`
	Deleted     int64     `json:"deleted"`
	Cutoff      time.Time `json:"cutoff,omitzero"`
	All         bool      `json:"all"`
}
