package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/parquet"
	"github.com/huangsam/firewatch/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// jsonVerdict is the JSON shape of a single evaluation.
type jsonVerdict struct {
	DeviceID    string               `json:"device_id"`
	Marker      string               `json:"marker"`
	Reading     schema.SensorReading `json:"reading"`
	Verdict     schema.RiskVerdict   `json:"verdict"`
	ShouldAlert bool                 `json:"should_alert"`
	DecidedAt   time.Time            `json:"decided_at"`
}

// printVerdict dispatches based on the output format configured.
func (ow *OutWriter) printVerdict(d schema.Decision, reading schema.SensorReading, cfg *contract.Config) error {
	fmtFloat, fmtOptional := createFormatters(signalPrecision)

	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, jsonVerdict{
				DeviceID:    d.DeviceID,
				Marker:      schema.GetLevelMarker(d.Verdict.Level),
				Reading:     reading,
				Verdict:     d.Verdict,
				ShouldAlert: d.ShouldAlert,
				DecidedAt:   d.DecidedAt,
			})
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictCSV(w, d, reading, fmtOptional)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteVerdictsParquet([]parquet.Verdict{parquet.ConvertDecision(d)}, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictTable(w, d, reading, cfg, fmtFloat, fmtOptional)
		}, "Wrote table")
	}
}

// writeVerdictTable renders the per-signal breakdown followed by the verdict summary.
func writeVerdictTable(w io.Writer, d schema.Decision, reading schema.SensorReading, cfg *contract.Config, fmtFloat func(float64) string, fmtOptional func(*float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Signal", "Value", "Threshold", "Points"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, sig := range schema.AllSignals {
		value, ok := reading.Value(sig)
		shown := "-"
		if ok {
			shown = fmtOptional(&value)
		}
		op := ">"
		if sig == schema.SignalHumidity {
			op = "<"
		}
		points := "0"
		if p, hit := d.Verdict.ComponentScores[sig]; hit {
			points = strconv.Itoa(p)
		}
		data = append(data, []string{
			string(sig),
			shown,
			op + " " + fmtFloat(cfg.Params.Thresholds.For(sig)),
			points,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	v := d.Verdict
	if _, err := fmt.Fprintf(w, "%s %s (score %d) %s\n", schema.GetLevelMarker(v.Level), levelLabel(v.Level, cfg), v.Score, v.Message); err != nil {
		return err
	}
	for _, f := range v.Factors {
		if _, err := fmt.Fprintf(w, "  - %s\n", f); err != nil {
			return err
		}
	}
	if v.DeltaBonusTotal > 0 {
		if _, err := fmt.Fprintf(w, "Trend bonus: +%d\n", v.DeltaBonusTotal); err != nil {
			return err
		}
	}
	alert := "no"
	if d.ShouldAlert {
		alert = "yes"
	}
	_, err := fmt.Fprintf(w, "Device: %s, alert: %s\n", d.DeviceID, alert)
	return err
}

// writeVerdictCSV writes a single evaluation as one CSV row.
func writeVerdictCSV(w io.Writer, d schema.Decision, reading schema.SensorReading, fmtOptional func(*float64) string) error {
	header := []string{
		"device_id",
		"decided_at",
		"temperature",
		"humidity",
		"eco2",
		"tvoc",
		"score",
		"level",
		"should_alert",
		"delta_bonus_total",
		"factors",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		return cw.Write([]string{
			d.DeviceID,
			formatTime(d.DecidedAt),
			fmtOptional(reading.Temperature),
			fmtOptional(reading.Humidity),
			fmtOptional(reading.ECO2),
			fmtOptional(reading.TVOC),
			strconv.Itoa(d.Verdict.Score),
			string(d.Verdict.Level),
			strconv.FormatBool(d.ShouldAlert),
			strconv.Itoa(d.Verdict.DeltaBonusTotal),
			strings.Join(d.Verdict.Factors, "|"),
		})
	})
}
