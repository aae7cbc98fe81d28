package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// statsSignals is the column order used by the stats output.
var statsSignals = []schema.Signal{schema.SignalTemperature, schema.SignalHumidity, schema.SignalECO2, schema.SignalTVOC}

// printStats dispatches based on the output format configured.
func (ow *OutWriter) printStats(stats schema.ReadingStats, cfg *contract.Config) error {
	_, fmtOptional := createFormatters(signalPrecision)

	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, stats)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"signal", "avg", "min", "max"}, func(cw *csv.Writer) error {
				for _, sig := range statsSignals {
					s := stats.Signals[sig]
					if err := cw.Write([]string{string(sig), fmtOptional(s.Avg), fmtOptional(s.Min), fmtOptional(s.Max)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for statistics")
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatsTable(w, stats, fmtOptional)
		}, "Wrote table")
	}
}

func writeStatsTable(w io.Writer, stats schema.ReadingStats, fmtOptional func(*float64) string) error {
	scope := "all devices"
	if stats.DeviceFilter != "" {
		scope = "device " + stats.DeviceFilter
	}
	if _, err := fmt.Fprintf(w, "📊 %d readings from %d devices (%s)\n", stats.TotalRecords, stats.DeviceCount, scope); err != nil {
		return err
	}
	if stats.EarliestData != nil && stats.LatestData != nil {
		if _, err := fmt.Fprintf(w, "Time range: %s to %s\n", formatTime(*stats.EarliestData), formatTime(*stats.LatestData)); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Signal", "Avg", "Min", "Max"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, sig := range statsSignals {
		s := stats.Signals[sig]
		data = append(data, []string{string(sig), fmtOptional(s.Avg), fmtOptional(s.Min), fmtOptional(s.Max)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// printCleanup reports a cleanup pass. CSV and parquet fall back to text.
func (ow *OutWriter) printCleanup(result schema.CleanupResult, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	}
	return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "Readings before cleanup: %d\n", result.TotalBefore); err != nil {
			return err
		}
		var err error
		if result.All {
			_, err = fmt.Fprintf(w, "🗑️  Deleted all %d readings and reset IDs\n", result.Deleted)
		} else {
			_, err = fmt.Fprintf(w, "🗑️  Deleted %d readings observed before %s\n", result.Deleted, formatTime(result.Cutoff))
		}
		return err
	}, "Wrote cleanup report")
}

// printParams renders the thresholds, weights and trend deltas in effect.
func (ow *OutWriter) printParams(cfg *contract.Config) error {
	p := cfg.Params
	fmtFloat, _ := createFormatters(signalPrecision)

	if cfg.Output == schema.JSONOut {
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				schema.EvaluationParams
				Cooldown string `json:"cooldown"`
			}{EvaluationParams: p, Cooldown: p.Cooldown.String()})
		}, "Wrote JSON")
	}

	return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Signal", "Trigger", "Weight", "Trend Delta"})
		var data [][]string
		for _, sig := range schema.AllSignals {
			trigger := "> " + fmtFloat(p.Thresholds.For(sig))
			if sig == schema.SignalHumidity {
				trigger = "< " + fmtFloat(p.Thresholds.For(sig))
			}
			delta := "-"
			if d, ok := p.Deltas.For(sig); ok {
				delta = "+" + fmtFloat(d)
			}
			data = append(data, []string{string(sig), trigger, strconv.Itoa(p.Weights.For(sig)), delta})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Trend bonus: %d per rising signal\nCooldown: %s\nLevels: HIGH >= %d (or temperature with tvoc/eco2), MEDIUM >= %d, LOW >= %d\n",
			p.DeltaBonus, p.Cooldown.Round(time.Millisecond), schema.HighScoreCutoff, schema.MediumScoreCutoff, schema.LowScoreCutoff)
		return err
	}, "Wrote table")
}
