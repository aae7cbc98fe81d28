// Package schema has models, constants and defaults for all parts of firewatch.
package schema

import (
	"math"
	"time"
)

// SensorReading is one sample from a device. Any signal may be nil or NaN,
// in which case it is treated as absent and never contributes to scoring.
type SensorReading struct {
	DeviceID    string     `json:"device_id,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"` // °C
	Humidity    *float64   `json:"humidity,omitempty"`    // %
	ECO2        *float64   `json:"eco2,omitempty"`        // ppm
	TVOC        *float64   `json:"tvoc,omitempty"`        // ppb
	ObservedAt  *time.Time `json:"observed_at,omitempty"`
}

// Float returns a pointer to v. Handy for building readings inline.
func Float(v float64) *float64 {
	return &v
}

// Value returns the value of a signal and whether it is usable.
func (r SensorReading) Value(sig Signal) (float64, bool) {
	var p *float64
	switch sig {
	case SignalTemperature:
		p = r.Temperature
	case SignalTVOC:
		p = r.TVOC
	case SignalECO2:
		p = r.ECO2
	case SignalHumidity:
		p = r.Humidity
	}
	if !finite(p) {
		return 0, false
	}
	return *p, true
}

// finite reports whether p holds a usable number. NaN and infinities count as absent.
func finite(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// Empty reports whether no signal in the reading is usable.
func (r SensorReading) Empty() bool {
	for _, sig := range AllSignals {
		if _, ok := r.Value(sig); ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so the caller's pointers are never shared with stored state.
// Non-finite signals are dropped, which keeps the copy JSON-encodable.
func (r SensorReading) Clone() SensorReading {
	out := SensorReading{DeviceID: r.DeviceID}
	cp := func(p *float64) *float64 {
		if !finite(p) {
			return nil
		}
		v := *p
		return &v
	}
	out.Temperature = cp(r.Temperature)
	out.Humidity = cp(r.Humidity)
	out.ECO2 = cp(r.ECO2)
	out.TVOC = cp(r.TVOC)
	if r.ObservedAt != nil {
		t := *r.ObservedAt
		out.ObservedAt = &t
	}
	return out
}

// ThresholdSet holds the absolute trigger values per signal.
// Humidity triggers below HumidityLow, the rest trigger above their value.
type ThresholdSet struct {
	Temperature float64 `json:"temperature"`
	TVOC        float64 `json:"tvoc"`
	ECO2        float64 `json:"eco2"`
	HumidityLow float64 `json:"humidity_low"`
}

// For returns the threshold configured for the signal.
func (t ThresholdSet) For(sig Signal) float64 {
	switch sig {
	case SignalTemperature:
		return t.Temperature
	case SignalTVOC:
		return t.TVOC
	case SignalECO2:
		return t.ECO2
	case SignalHumidity:
		return t.HumidityLow
	}
	return math.NaN()
}

// WeightSet holds the score contribution of each triggered signal.
type WeightSet struct {
	Temperature int `json:"temperature"`
	TVOC        int `json:"tvoc"`
	ECO2        int `json:"eco2"`
	Humidity    int `json:"humidity"`
}

// For returns the weight configured for the signal.
func (w WeightSet) For(sig Signal) int {
	switch sig {
	case SignalTemperature:
		return w.Temperature
	case SignalTVOC:
		return w.TVOC
	case SignalECO2:
		return w.ECO2
	case SignalHumidity:
		return w.Humidity
	}
	return 0
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() int {
	return w.Temperature + w.TVOC + w.ECO2 + w.Humidity
}

// DeltaThresholdSet holds the minimum rise between consecutive readings
// that earns the trend bonus.
type DeltaThresholdSet struct {
	Temperature float64 `json:"temperature"`
	TVOC        float64 `json:"tvoc"`
	ECO2        float64 `json:"eco2"`
}

// For returns the delta threshold for the signal. Humidity has none.
func (d DeltaThresholdSet) For(sig Signal) (float64, bool) {
	switch sig {
	case SignalTemperature:
		return d.Temperature, true
	case SignalTVOC:
		return d.TVOC, true
	case SignalECO2:
		return d.ECO2, true
	}
	return 0, false
}

// EvaluationParams bundles everything the evaluator and gatekeeper are configured with.
type EvaluationParams struct {
	Thresholds ThresholdSet      `json:"thresholds"`
	Weights    WeightSet         `json:"weights"`
	Deltas     DeltaThresholdSet `json:"deltas"`
	DeltaBonus int               `json:"delta_bonus"`
	Cooldown   time.Duration     `json:"cooldown"`
}

// RiskVerdict is the outcome of evaluating one reading.
type RiskVerdict struct {
	Score           int            `json:"risk_score"`
	Level           Level          `json:"risk_level"`
	Message         string         `json:"message"`
	Factors         []string       `json:"risk_factors"`
	ComponentScores map[Signal]int `json:"component_scores"`
	DeltaBonusTotal int            `json:"delta_bonus_total"`
}

// Triggered reports whether the signal crossed its absolute threshold.
func (v RiskVerdict) Triggered(sig Signal) bool {
	_, ok := v.ComponentScores[sig]
	return ok
}

// GatekeeperState is the per-device memory of the gatekeeper.
type GatekeeperState struct {
	LastReading *SensorReading `json:"last_reading,omitempty"`
	LastAlertAt *time.Time     `json:"last_alert_at,omitempty"`
}

// Decision is what the gatekeeper returns for one reading.
type Decision struct {
	DeviceID    string          `json:"device_id"`
	Verdict     RiskVerdict     `json:"verdict"`
	ShouldAlert bool            `json:"should_alert"`
	State       GatekeeperState `json:"state"`
	DecidedAt   time.Time       `json:"decided_at"`
}
