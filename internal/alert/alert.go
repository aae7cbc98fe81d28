// Package alert delivers gatekeeper alerts to logs, Kafka and WebSocket clients.
package alert

import (
	"time"

	"github.com/huangsam/firewatch/schema"
)

// Event is the wire form of an alert.
type Event struct {
	DeviceID  string       `json:"device_id"`
	Level     schema.Level `json:"level"`
	Score     int          `json:"score"`
	Message   string       `json:"message"`
	Factors   []string     `json:"factors"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent builds an event from a verdict and its formatted message.
func NewEvent(deviceID string, verdict schema.RiskVerdict, message string, at time.Time) Event {
	factors := verdict.Factors
	if factors == nil {
		factors = []string{}
	}
	return Event{
		DeviceID:  deviceID,
		Level:     verdict.Level,
		Score:     verdict.Score,
		Message:   message,
		Factors:   factors,
		Timestamp: at.UTC(),
	}
}
