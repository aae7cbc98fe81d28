package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Params: schema.GetDefaultParams(),
		Output: output,
		Width:  160,
	}
}

func highDecision() (schema.Decision, schema.SensorReading) {
	reading := schema.SensorReading{Temperature: schema.Float(31), TVOC: schema.Float(350)}
	return schema.Decision{
		DeviceID: "kitchen",
		Verdict: schema.RiskVerdict{
			Score:           60,
			Level:           schema.LevelHigh,
			Message:         schema.GetLevelMessage(schema.LevelHigh),
			Factors:         []string{"high temperature (31°C > 30°C)", "elevated TVOC (350ppb > 300ppb)"},
			ComponentScores: map[schema.Signal]int{schema.SignalTemperature: 35, schema.SignalTVOC: 25},
			DeltaBonusTotal: 10,
		},
		ShouldAlert: true,
		DecidedAt:   at,
	}, reading
}

func sampleRecords() []schema.ReadingRecord {
	return []schema.ReadingRecord{
		{
			ID: 2, DeviceID: "kitchen", Temperature: schema.Float(31), TVOC: schema.Float(350),
			ObservedAt: at, RiskScore: 60, RiskLevel: schema.LevelHigh,
			RiskFactors: []string{"a", "b"}, CreatedAt: at,
		},
		{
			ID: 1, DeviceID: "garage", Humidity: schema.Float(55),
			ObservedAt: at.Add(-time.Minute), RiskScore: 0, RiskLevel: schema.LevelSafe,
			RiskFactors: []string{}, CreatedAt: at,
		},
	}
}

func TestWriteVerdictText(t *testing.T) {
	var buf bytes.Buffer
	d, reading := highDecision()

	require.NoError(t, NewOutWriterTo(&buf).WriteVerdict(d, reading, testConfig(schema.TextOut)))

	out := buf.String()
	assert.Contains(t, out, "temperature")
	assert.Contains(t, out, "> 30.0")
	assert.Contains(t, out, "< 30.0")
	assert.Contains(t, out, "🔴 HIGH (score 60) Fire risk - check immediately!")
	assert.Contains(t, out, "  - elevated TVOC (350ppb > 300ppb)")
	assert.Contains(t, out, "Trend bonus: +10")
	assert.Contains(t, out, "Device: kitchen, alert: yes")
}

func TestWriteVerdictJSON(t *testing.T) {
	var buf bytes.Buffer
	d, reading := highDecision()

	require.NoError(t, NewOutWriterTo(&buf).WriteVerdict(d, reading, testConfig(schema.JSONOut)))

	var result map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "kitchen", result["device_id"])
	assert.Equal(t, "🔴", result["marker"])
	assert.Equal(t, true, result["should_alert"])
	verdict := result["verdict"].(map[string]any)
	assert.Equal(t, float64(60), verdict["risk_score"])
	assert.Equal(t, "HIGH", verdict["risk_level"])
}

func TestWriteVerdictCSV(t *testing.T) {
	var buf bytes.Buffer
	d, reading := highDecision()

	require.NoError(t, NewOutWriterTo(&buf).WriteVerdict(d, reading, testConfig(schema.CSVOut)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "device_id", records[0][0])
	assert.Equal(t, []string{
		"kitchen", "2026-03-01T12:00:00Z", "31.0", "-", "-", "350.0", "60", "HIGH", "true", "10",
		"high temperature (31°C > 30°C)|elevated TVOC (350ppb > 300ppb)",
	}, records[1])
}

func TestWriteVerdictParquet(t *testing.T) {
	d, reading := highDecision()
	cfg := testConfig(schema.ParquetOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "verdict.parquet")

	require.NoError(t, NewOutWriter().WriteVerdict(d, reading, cfg))
	info, err := os.Stat(cfg.OutputFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteReadingsText(t *testing.T) {
	var buf bytes.Buffer
	page := schema.ReadingPage{TotalCount: 5, Page: 1, Limit: 2, Data: sampleRecords()}

	require.NoError(t, NewOutWriterTo(&buf).WriteReadings(page, testConfig(schema.TextOut)))

	out := buf.String()
	assert.Contains(t, out, "kitchen")
	assert.Contains(t, out, "garage")
	assert.Contains(t, out, "55.0")
	assert.Contains(t, out, "Showing 2 of 5 readings for all devices (page 1, limit 2)")
}

func TestWriteReadingsJSON(t *testing.T) {
	var buf bytes.Buffer
	page := schema.ReadingPage{TotalCount: 2, Page: 1, Limit: 100, DeviceFilter: "kitchen", Data: sampleRecords()}

	require.NoError(t, NewOutWriterTo(&buf).WriteReadings(page, testConfig(schema.JSONOut)))

	var result struct {
		TotalCount   int              `json:"total_count"`
		DeviceFilter string           `json:"device_filter"`
		Data         []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, "kitchen", result.DeviceFilter)
	require.Len(t, result.Data, 2)
	assert.Equal(t, float64(1), result.Data[0]["rank"])
	assert.Equal(t, "🔴", result.Data[0]["marker"])
	assert.Nil(t, result.Data[0]["humidity"])
}

func TestWriteReadingsCSV(t *testing.T) {
	var buf bytes.Buffer
	page := schema.ReadingPage{Data: sampleRecords()}

	require.NoError(t, NewOutWriterTo(&buf).WriteReadings(page, testConfig(schema.CSVOut)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,device_id,timestamp"))
	assert.Equal(t, "2,kitchen,2026-03-01T12:00:00Z,31.0,-,-,350.0,60,HIGH,a|b,2026-03-01T12:00:00Z", lines[1])
}

func TestWriteReadingsParquet(t *testing.T) {
	cfg := testConfig(schema.ParquetOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "readings.parquet")

	require.NoError(t, NewOutWriter().WriteReadings(schema.ReadingPage{Data: sampleRecords()}, cfg))
	_, err := os.Stat(cfg.OutputFile)
	assert.NoError(t, err)
}

func TestWriteDevices(t *testing.T) {
	devices := []schema.DeviceSummary{
		{DeviceID: "kitchen", DataCount: 3, FirstData: at.Add(-time.Hour), LastData: at},
	}

	var text bytes.Buffer
	require.NoError(t, NewOutWriterTo(&text).WriteDevices(devices, testConfig(schema.TextOut)))
	assert.Contains(t, text.String(), "kitchen")
	assert.Contains(t, text.String(), "1 devices")

	var js bytes.Buffer
	require.NoError(t, NewOutWriterTo(&js).WriteDevices(nil, testConfig(schema.JSONOut)))
	assert.Equal(t, "[]\n", js.String())

	var c bytes.Buffer
	require.NoError(t, NewOutWriterTo(&c).WriteDevices(devices, testConfig(schema.CSVOut)))
	assert.Equal(t, "device_id,data_count,first_data,last_data\nkitchen,3,2026-03-01T11:00:00Z,2026-03-01T12:00:00Z\n", c.String())

	assert.Error(t, NewOutWriterTo(&c).WriteDevices(devices, testConfig(schema.ParquetOut)))
}

func TestWriteStats(t *testing.T) {
	earliest, latest := at.Add(-time.Hour), at
	stats := schema.ReadingStats{
		TotalRecords: 4,
		DeviceCount:  2,
		Signals: map[schema.Signal]schema.SignalStats{
			schema.SignalTemperature: {Avg: schema.Float(25.5), Min: schema.Float(20), Max: schema.Float(31)},
		},
		EarliestData: &earliest,
		LatestData:   &latest,
	}

	var text bytes.Buffer
	require.NoError(t, NewOutWriterTo(&text).WriteStats(stats, testConfig(schema.TextOut)))
	assert.Contains(t, text.String(), "📊 4 readings from 2 devices (all devices)")
	assert.Contains(t, text.String(), "Time range: 2026-03-01T11:00:00Z to 2026-03-01T12:00:00Z")
	assert.Contains(t, text.String(), "25.5")

	var c bytes.Buffer
	require.NoError(t, NewOutWriterTo(&c).WriteStats(stats, testConfig(schema.CSVOut)))
	lines := strings.Split(strings.TrimSpace(c.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "temperature,25.5,20.0,31.0", lines[1])
	assert.Equal(t, "humidity,-,-,-", lines[2])

	var js bytes.Buffer
	require.NoError(t, NewOutWriterTo(&js).WriteStats(stats, testConfig(schema.JSONOut)))
	assert.Contains(t, js.String(), `"total_records": 4`)
}

func TestWriteCleanup(t *testing.T) {
	var buf bytes.Buffer
	ow := NewOutWriterTo(&buf)

	require.NoError(t, ow.WriteCleanup(schema.CleanupResult{TotalBefore: 10, Deleted: 4, Cutoff: at}, testConfig(schema.TextOut)))
	assert.Equal(t, "Readings before cleanup: 10\n🗑️  Deleted 4 readings observed before 2026-03-01T12:00:00Z\n", buf.String())

	buf.Reset()
	require.NoError(t, ow.WriteCleanup(schema.CleanupResult{TotalBefore: 10, Deleted: 10, All: true}, testConfig(schema.TextOut)))
	assert.Contains(t, buf.String(), "Deleted all 10 readings and reset IDs")

	buf.Reset()
	require.NoError(t, ow.WriteCleanup(schema.CleanupResult{TotalBefore: 1, Deleted: 1, All: true}, testConfig(schema.JSONOut)))
	assert.Contains(t, buf.String(), `"all": true`)
	assert.NotContains(t, buf.String(), "cutoff")
}

func TestWriteParams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOutWriterTo(&buf).WriteParams(testConfig(schema.TextOut)))
	out := buf.String()
	assert.Contains(t, out, "> 1000.0")
	assert.Contains(t, out, "< 30.0")
	assert.Contains(t, out, "Trend bonus: 10 per rising signal")
	assert.Contains(t, out, "Cooldown: 1m0s")

	buf.Reset()
	require.NoError(t, NewOutWriterTo(&buf).WriteParams(testConfig(schema.JSONOut)))
	var result map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "1m0s", result["cooldown"])
	assert.Equal(t, float64(10), result["delta_bonus"])
}
