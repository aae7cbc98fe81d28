package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/parquet"
	"github.com/huangsam/firewatch/schema"
)

// ErrNothingToExport is returned when the store holds no readings.
var ErrNothingToExport = errors.New("no readings found to export")

// ReadAll pages through the store and returns every reading, newest first.
func ReadAll(ctx context.Context, rs contract.ReadingStore, deviceID string) ([]schema.ReadingRecord, error) {
	var records []schema.ReadingRecord
	q := schema.ListQuery{Page: 1, Limit: schema.MaxLimit, DeviceID: deviceID}
	for {
		page, err := rs.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", q.Page, err)
		}
		records = append(records, page.Data...)
		if len(page.Data) < q.Limit || len(records) >= page.TotalCount {
			return records, nil
		}
		q.Page++
	}
}

// ExecuteReadingExport writes the stored readings to a Parquet file.
func ExecuteReadingExport(ctx context.Context, rs contract.ReadingStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := rs.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalReadings == 0 {
		return ErrNothingToExport
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total readings: %d across %d devices\n", status.TotalReadings, status.DeviceCount)

	records, err := ReadAll(ctx, rs, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve readings: %w", err)
	}

	rows := parquet.ConvertReadingRecords(records)
	if err := parquet.WriteReadingsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write readings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d readings to: %s\n", len(rows), outputFile)
	return nil
}
