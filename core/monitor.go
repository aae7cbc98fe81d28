package core

import (
	"context"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/internal/metrics"
	"github.com/huangsam/firewatch/schema"
)

var _ contract.ReadingProcessor = &Monitor{} // Compile-time check

// Monitor runs every ingested reading through the gatekeeper, then hands the
// result to the persistence and alert collaborators. Collaborator failures are
// logged and counted; they never undo the gatekeeper's state update.
type Monitor struct {
	gate  *Gatekeeper
	store contract.ReadingStore
	sinks []contract.AlertSink
}

// NewMonitor wires a monitor. store may be nil to skip persistence.
func NewMonitor(gate *Gatekeeper, store contract.ReadingStore, sinks ...contract.AlertSink) *Monitor {
	return &Monitor{gate: gate, store: store, sinks: sinks}
}

// Gatekeeper returns the wrapped gatekeeper.
func (m *Monitor) Gatekeeper() *Gatekeeper {
	return m.gate
}

// Process implements contract.ReadingProcessor.
func (m *Monitor) Process(ctx context.Context, reading schema.SensorReading) (contract.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return contract.Outcome{}, err
	}

	deviceID := ResolveDeviceID("", reading)
	reading.DeviceID = deviceID
	if reading.ObservedAt == nil {
		now := m.gate.Now()
		reading.ObservedAt = &now
	}
	log := logger.WithDevice(deviceID)

	decision, err := m.gate.Consider(ctx, deviceID, reading)
	if err != nil {
		log.Warn().Err(err).Msg("gatekeeper degraded")
	}
	verdict := decision.Verdict
	metrics.VerdictsTotal.WithLabelValues(string(verdict.Level)).Inc()
	metrics.RiskScore.Observe(float64(verdict.Score))

	outcome := contract.Outcome{Decision: decision}

	if m.store != nil {
		id, err := m.store.Record(ctx, deviceID, reading, verdict)
		if err != nil {
			metrics.StoreErrorsTotal.WithLabelValues("record").Inc()
			log.Error().Err(err).Msg("failed to persist reading")
		} else {
			outcome.DataID = id
			outcome.Stored = true
		}
	}

	switch {
	case decision.ShouldAlert:
		outcome.Message = FormatAlert(verdict, deviceID)
		m.dispatch(ctx, deviceID, verdict, outcome.Message)
		metrics.AlertsTotal.WithLabelValues(string(verdict.Level), "dispatched").Inc()
		event := log.Info()
		if IsEmergency(verdict) {
			event = log.Error()
		}
		event.Int("score", verdict.Score).Int("sinks", len(m.sinks)).Msg("alert dispatched")
	case verdict.Level.AlertEligible():
		metrics.AlertsTotal.WithLabelValues(string(verdict.Level), "suppressed").Inc()
		log.Debug().Str("risk_level", string(verdict.Level)).Msg("alert suppressed by cooldown")
	}

	return outcome, nil
}

func (m *Monitor) dispatch(ctx context.Context, deviceID string, verdict schema.RiskVerdict, message string) {
	for _, sink := range m.sinks {
		if err := sink.Send(ctx, deviceID, verdict, message); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
			logger.WithComponent("monitor").Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("device_id", deviceID).
				Msg("alert delivery failed")
		}
	}
}
