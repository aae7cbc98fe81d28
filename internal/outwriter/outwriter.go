// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// signalPrecision is the number of decimals shown for sensor values.
const signalPrecision = 1

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct {
	out io.Writer // used when no output file is configured
}

// NewOutWriter creates a new instance of the output writer targeting stdout.
func NewOutWriter() *OutWriter {
	return &OutWriter{out: os.Stdout}
}

// NewOutWriterTo creates an output writer that prints to w instead of stdout.
func NewOutWriterTo(w io.Writer) *OutWriter {
	return &OutWriter{out: w}
}

// WriteVerdict prints a single evaluation using the configured output format.
func (ow *OutWriter) WriteVerdict(decision schema.Decision, reading schema.SensorReading, cfg *contract.Config) error {
	return ow.printVerdict(decision, reading, cfg)
}

// WriteReadings prints a page of stored readings using the configured output format.
func (ow *OutWriter) WriteReadings(page schema.ReadingPage, cfg *contract.Config) error {
	return ow.printReadings(page, cfg)
}

// WriteDevices prints per-device summaries using the configured output format.
func (ow *OutWriter) WriteDevices(devices []schema.DeviceSummary, cfg *contract.Config) error {
	return ow.printDevices(devices, cfg)
}

// WriteStats prints aggregate reading statistics using the configured output format.
func (ow *OutWriter) WriteStats(stats schema.ReadingStats, cfg *contract.Config) error {
	return ow.printStats(stats, cfg)
}

// WriteCleanup prints the outcome of a cleanup pass.
func (ow *OutWriter) WriteCleanup(result schema.CleanupResult, cfg *contract.Config) error {
	return ow.printCleanup(result, cfg)
}

// WriteParams prints the effective evaluation parameters.
func (ow *OutWriter) WriteParams(cfg *contract.Config) error {
	return ow.printParams(cfg)
}
