package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/parquet"
	"github.com/huangsam/firewatch/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// jsonReadingPage mirrors schema.ReadingPage with markers added to each row.
type jsonReadingPage struct {
	TotalCount   int                      `json:"total_count"`
	Page         int                      `json:"page"`
	Limit        int                      `json:"limit"`
	DeviceFilter string                   `json:"device_filter,omitempty"`
	Data         []schema.EnrichedReading `json:"data"`
}

// printReadings dispatches based on the output format configured.
func (ow *OutWriter) printReadings(page schema.ReadingPage, cfg *contract.Config) error {
	_, fmtOptional := createFormatters(signalPrecision)

	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, jsonReadingPage{
				TotalCount:   page.TotalCount,
				Page:         page.Page,
				Limit:        page.Limit,
				DeviceFilter: page.DeviceFilter,
				Data:         schema.EnrichReadings(page.Data),
			})
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReadingsCSV(w, page.Data, fmtOptional)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteReadingsParquet(parquet.ConvertReadingRecords(page.Data), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReadingsTable(w, page, cfg, fmtOptional)
		}, "Wrote table")
	}
}

func writeReadingsTable(w io.Writer, page schema.ReadingPage, cfg *contract.Config, fmtOptional func(*float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Device", "Time", "Temp", "Hum", "eCO2", "TVOC", "Score", "Level", "Factors"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	factorWidth := GetMaxTableFactorWidth(cfg)
	var data [][]string
	for _, r := range page.Data {
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			r.DeviceID,
			formatTime(r.ObservedAt),
			fmtOptional(r.Temperature),
			fmtOptional(r.Humidity),
			fmtOptional(r.ECO2),
			fmtOptional(r.TVOC),
			strconv.Itoa(r.RiskScore),
			levelLabel(r.RiskLevel, cfg),
			contract.TruncateText(strings.Join(r.RiskFactors, "; "), factorWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	scope := "all devices"
	if page.DeviceFilter != "" {
		scope = "device " + page.DeviceFilter
	}
	_, err := fmt.Fprintf(w, "Showing %d of %d readings for %s (page %d, limit %d)\n",
		len(page.Data), page.TotalCount, scope, page.Page, page.Limit)
	return err
}

func writeReadingsCSV(w io.Writer, records []schema.ReadingRecord, fmtOptional func(*float64) string) error {
	header := []string{
		"id",
		"device_id",
		"timestamp",
		"temperature",
		"humidity",
		"eco2",
		"tvoc",
		"risk_score",
		"risk_level",
		"risk_factors",
		"created_at",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			rec := []string{
				strconv.FormatInt(r.ID, 10),
				r.DeviceID,
				formatTime(r.ObservedAt),
				fmtOptional(r.Temperature),
				fmtOptional(r.Humidity),
				fmtOptional(r.ECO2),
				fmtOptional(r.TVOC),
				strconv.Itoa(r.RiskScore),
				string(r.RiskLevel),
				strings.Join(r.RiskFactors, "|"),
				formatTime(r.CreatedAt),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// printDevices dispatches based on the output format configured.
func (ow *OutWriter) printDevices(devices []schema.DeviceSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if devices == nil {
			devices = []schema.DeviceSummary{}
		}
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, devices)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"device_id", "data_count", "first_data", "last_data"}, func(cw *csv.Writer) error {
				for _, d := range devices {
					if err := cw.Write([]string{d.DeviceID, strconv.Itoa(d.DataCount), formatTime(d.FirstData), formatTime(d.LastData)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for device summaries")
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Device", "Readings", "First Seen", "Last Seen"})
			var data [][]string
			for _, d := range devices {
				data = append(data, []string{d.DeviceID, strconv.Itoa(d.DataCount), formatTime(d.FirstData), formatTime(d.LastData)})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d devices\n", len(devices))
			return err
		}, "Wrote table")
	}
}
