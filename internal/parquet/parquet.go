// Package parquet provides data structures and functions for exporting
// stored readings and verdicts to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/firewatch/schema"
	"github.com/parquet-go/parquet-go"
)

// Reading represents one stored reading with its verdict.
// This struct maps to the sensor_data database table.
type Reading struct {
	ID       int64  `parquet:"id,snappy"`
	DeviceID string `parquet:"device_id,snappy,dict"`

	// Signal columns are nullable: a sensor may omit any of them
	Temperature *float64 `parquet:"temperature,optional,snappy"`
	Humidity    *float64 `parquet:"humidity,optional,snappy"`
	ECO2        *float64 `parquet:"eco2,optional,snappy"`
	TVOC        *float64 `parquet:"tvoc,optional,snappy"`

	ObservedAt  time.Time `parquet:"observed_at,snappy"`
	RiskScore   int32     `parquet:"risk_score,snappy"`
	RiskLevel   string    `parquet:"risk_level,snappy,dict"`
	RiskFactors []string  `parquet:"risk_factors,list"`
	CreatedAt   time.Time `parquet:"created_at,snappy"`
}

// Verdict represents a single evaluation result outside of the store.
type Verdict struct {
	DeviceID        string    `parquet:"device_id,snappy"`
	EvaluatedAt     time.Time `parquet:"evaluated_at,snappy"`
	Score           int32     `parquet:"score,snappy"`
	Level           string    `parquet:"level,snappy"`
	Message         string    `parquet:"message,snappy"`
	Factors         []string  `parquet:"factors,list"`
	DeltaBonusTotal int32     `parquet:"delta_bonus_total,snappy"`
}

// writeParquet writes rows of any struct type using schema inference from its tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteReadingsParquet writes stored readings to a Parquet file.
func WriteReadingsParquet(data []Reading, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteVerdictsParquet writes evaluation results to a Parquet file.
func WriteVerdictsParquet(data []Verdict, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertReadingRecords converts schema.ReadingRecord to Reading for Parquet export.
func ConvertReadingRecords(records []schema.ReadingRecord) []Reading {
	result := make([]Reading, len(records))
	for i, record := range records {
		factors := record.RiskFactors
		if factors == nil {
			factors = []string{}
		}
		result[i] = Reading{
			ID:          record.ID,
			DeviceID:    record.DeviceID,
			Temperature: record.Temperature,
			Humidity:    record.Humidity,
			ECO2:        record.ECO2,
			TVOC:        record.TVOC,
			ObservedAt:  record.ObservedAt,
			RiskScore:   int32(record.RiskScore),
			RiskLevel:   string(record.RiskLevel),
			RiskFactors: factors,
			CreatedAt:   record.CreatedAt,
		}
	}
	return result
}

// ConvertDecision converts a gatekeeper decision to a Verdict row.
func ConvertDecision(decision schema.Decision) Verdict {
	v := decision.Verdict
	factors := v.Factors
	if factors == nil {
		factors = []string{}
	}
	return Verdict{
		DeviceID:        decision.DeviceID,
		EvaluatedAt:     decision.DecidedAt,
		Score:           int32(v.Score),
		Level:           string(v.Level),
		Message:         v.Message,
		Factors:         factors,
		DeltaBonusTotal: int32(v.DeltaBonusTotal),
	}
}
