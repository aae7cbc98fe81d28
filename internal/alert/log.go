package alert

import (
	"context"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/schema"
)

// LogSink writes alerts to the structured log.
type LogSink struct{}

var _ contract.AlertSink = LogSink{} // Compile-time check

// Name implements the AlertSink interface.
func (LogSink) Name() string { return "log" }

// Send implements the AlertSink interface.
func (LogSink) Send(_ context.Context, deviceID string, verdict schema.RiskVerdict, message string) error {
	event := logger.WithComponent("alert").Warn()
	if verdict.Level == schema.LevelHigh {
		event = logger.WithComponent("alert").Error()
	}
	event.
		Str("device_id", deviceID).
		Str("risk_level", string(verdict.Level)).
		Int("score", verdict.Score).
		Strs("factors", verdict.Factors).
		Msg(message)
	return nil
}
