package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/firewatch/schema"
)

// FormatAlert renders a verdict as the human-readable alert text sent to sinks.
func FormatAlert(verdict schema.RiskVerdict, deviceID string) string {
	var b strings.Builder
	message := verdict.Message
	if message == "" {
		message = schema.GetLevelMessage(verdict.Level)
	}
	fmt.Fprintf(&b, "%s %s", schema.GetLevelMarker(verdict.Level), message)
	if deviceID != "" {
		fmt.Fprintf(&b, " (device: %s)", deviceID)
	}
	if len(verdict.Factors) > 0 {
		fmt.Fprintf(&b, "\nrisk factors: %s", strings.Join(verdict.Factors, ", "))
	}
	return b.String()
}

// IsEmergency reports whether a verdict needs immediate attention.
func IsEmergency(verdict schema.RiskVerdict) bool {
	return verdict.Level == schema.LevelHigh
}
