package store

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *ReadingStoreImpl {
	t.Helper()
	rs, err := NewReadingStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	impl, ok := rs.(*ReadingStoreImpl)
	require.True(t, ok)
	impl.now = func() time.Time { return baseTime }
	t.Cleanup(func() { _ = impl.Close() })
	return impl
}

func readingAt(device string, temp float64, offset time.Duration) schema.SensorReading {
	at := baseTime.Add(offset)
	return schema.SensorReading{DeviceID: device, Temperature: schema.Float(temp), ObservedAt: &at}
}

func verdictOf(score int, level schema.Level, factors ...string) schema.RiskVerdict {
	return schema.RiskVerdict{Score: score, Level: level, Factors: factors}
}

func TestReadingStore_NoneBackend(t *testing.T) {
	rs, err := NewReadingStore(schema.NoneBackend, "")
	require.NoError(t, err)
	ctx := context.Background()

	id, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 31, 0), verdictOf(35, schema.LevelLow))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), id)

	_, err = rs.Latest(ctx, "")
	assert.ErrorIs(t, err, ErrNoData)

	page, err := rs.List(ctx, schema.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultLimit, page.Limit)
	assert.Empty(t, page.Data)

	status, err := rs.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, rs.Close())
}

func TestReadingStore_UnsupportedBackend(t *testing.T) {
	_, err := NewReadingStore("oracle", "")
	assert.Error(t, err)
}

func TestReadingStore_RecordAndLatest(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	_, err := rs.Latest(ctx, "")
	require.ErrorIs(t, err, ErrNoData)

	nan := math.NaN()
	reading := readingAt("kitchen", 31.5, 0)
	reading.Humidity = &nan
	reading.TVOC = schema.Float(350)

	id, err := rs.Record(ctx, "kitchen", reading, verdictOf(60, schema.LevelHigh, "high temperature (31.5°C > 30°C)", "elevated TVOC (350ppb > 300ppb)"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	latest, err := rs.Latest(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.ID)
	assert.Equal(t, "kitchen", latest.DeviceID)
	require.NotNil(t, latest.Temperature)
	assert.Equal(t, 31.5, *latest.Temperature)
	assert.Nil(t, latest.Humidity, "NaN is stored as NULL")
	assert.Nil(t, latest.ECO2)
	assert.Equal(t, 350.0, *latest.TVOC)
	assert.Equal(t, 60, latest.RiskScore)
	assert.Equal(t, schema.LevelHigh, latest.RiskLevel)
	assert.Len(t, latest.RiskFactors, 2)
	assert.True(t, baseTime.Equal(latest.ObservedAt))
	assert.True(t, baseTime.Equal(latest.CreatedAt))

	_, err = rs.Latest(ctx, "garage")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReadingStore_RecordDefaultsObservedAt(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	_, err := rs.Record(ctx, "kitchen", schema.SensorReading{ECO2: schema.Float(900)}, verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)

	latest, err := rs.Latest(ctx, "")
	require.NoError(t, err)
	assert.True(t, baseTime.Equal(latest.ObservedAt))
	assert.NotNil(t, latest.RiskFactors)
	assert.Empty(t, latest.RiskFactors)
}

func TestReadingStore_List(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	for i := range 5 {
		device := "kitchen"
		if i%2 == 1 {
			device = "garage"
		}
		_, err := rs.Record(ctx, device, readingAt(device, 20+float64(i), time.Duration(i)*time.Minute), verdictOf(0, schema.LevelSafe))
		require.NoError(t, err)
	}

	page, err := rs.List(ctx, schema.ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
	require.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.Data[0].ID, "newest first")
	assert.Equal(t, int64(4), page.Data[1].ID)

	page, err = rs.List(ctx, schema.ListQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Data[0].ID)

	page, err = rs.List(ctx, schema.ListQuery{DeviceID: "garage"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "garage", page.DeviceFilter)
	for _, r := range page.Data {
		assert.Equal(t, "garage", r.DeviceID)
	}

	page, err = rs.List(ctx, schema.ListQuery{Page: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
}

func TestReadingStore_DevicesAndStats(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	_, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 30, 0), verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)
	_, err = rs.Record(ctx, "kitchen", readingAt("kitchen", 32, time.Minute), verdictOf(35, schema.LevelLow))
	require.NoError(t, err)
	_, err = rs.Record(ctx, "garage", readingAt("garage", 25, 2*time.Minute), verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)

	devices, err := rs.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "garage", devices[0].DeviceID, "most recently active first")
	assert.Equal(t, "kitchen", devices[1].DeviceID)
	assert.Equal(t, 2, devices[1].DataCount)
	assert.True(t, baseTime.Equal(devices[1].FirstData))
	assert.True(t, baseTime.Add(time.Minute).Equal(devices[1].LastData))

	stats, err := rs.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 2, stats.DeviceCount)
	temp := stats.Signals[schema.SignalTemperature]
	require.NotNil(t, temp.Avg)
	assert.InDelta(t, 29.0, *temp.Avg, 1e-9)
	assert.Equal(t, 25.0, *temp.Min)
	assert.Equal(t, 32.0, *temp.Max)
	assert.Nil(t, stats.Signals[schema.SignalHumidity].Avg, "no humidity values stored")
	require.NotNil(t, stats.EarliestData)
	assert.True(t, baseTime.Equal(*stats.EarliestData))
	assert.True(t, baseTime.Add(2*time.Minute).Equal(*stats.LatestData))

	stats, err = rs.Stats(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, "kitchen", stats.DeviceFilter)
	assert.InDelta(t, 31.0, *stats.Signals[schema.SignalTemperature].Avg, 1e-9)

	stats, err = rs.Stats(ctx, "attic")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRecords)
	assert.Nil(t, stats.EarliestData)
}

func TestReadingStore_DeleteOlderThan(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	for _, offset := range []time.Duration{-10 * 24 * time.Hour, -8 * 24 * time.Hour, -time.Hour, 0} {
		_, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 25, offset), verdictOf(0, schema.LevelSafe))
		require.NoError(t, err)
	}

	deleted, err := rs.DeleteOlderThan(ctx, baseTime.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := rs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReadingStore_DeleteAllResetsIDs(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	for i := range 3 {
		_, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 25, time.Duration(i)*time.Second), verdictOf(0, schema.LevelSafe))
		require.NoError(t, err)
	}

	deleted, err := rs.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	id, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 25, 0), verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestReadingStore_GetStatus(t *testing.T) {
	rs := newSQLiteStore(t)
	ctx := context.Background()

	status, err := rs.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalReadings)
	assert.True(t, status.LastEntryTime.IsZero())

	_, err = rs.Record(ctx, "kitchen", readingAt("kitchen", 25, 0), verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)
	_, err = rs.Record(ctx, "garage", readingAt("garage", 25, time.Hour), verdictOf(0, schema.LevelSafe))
	require.NoError(t, err)

	status, err = rs.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalReadings)
	assert.Equal(t, 2, status.DeviceCount)
	assert.Equal(t, int64(2), status.LastReadingID)
	assert.True(t, baseTime.Equal(status.OldestEntryTime))
	assert.True(t, baseTime.Add(time.Hour).Equal(status.LastEntryTime))
	assert.Equal(t, uint(0), status.SchemaVersion, "bootstrap does not record a migration version")

	var buf bytes.Buffer
	PrintStoreStatus(&buf, status)
	assert.Contains(t, buf.String(), "Store Backend: sqlite")
	assert.Contains(t, buf.String(), "Total Readings: 2")
	assert.NotContains(t, buf.String(), "Schema Version")
}

func TestMigrate_NoneBackend(t *testing.T) {
	_, err := Migrate(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	result, err := Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(1), result.ToVersion)

	result, err = Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed, "already at the latest version")

	result, err = Migrate(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.False(t, result.Changed)

	rs, err := NewReadingStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	status, err := rs.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.SchemaVersion)
	require.NoError(t, rs.Close())

	result, err = Migrate(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(0), result.ToVersion)

	result, err = Migrate(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.ToVersion)
}

func TestMigrate_SQLiteInMemory(t *testing.T) {
	_, err := Migrate(schema.SQLiteBackend, ":memory:", -1)
	require.NoError(t, err)
}

func TestManager(t *testing.T) {
	t.Run("uninitialized returns none store", func(t *testing.T) {
		mgr := &StoreManager{}
		_, ok := mgr.GetReadingStore().(*NoneStore)
		assert.True(t, ok)
	})

	t.Run("idempotent setup", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		dbPath := filepath.Join(t.TempDir(), "manager.db")

		require.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		require.NoError(t, InitStore(schema.MySQLBackend, "ignored")) // sync.Once keeps the first

		_, ok := Manager.GetReadingStore().(*ReadingStoreImpl)
		assert.True(t, ok)

		CloseStore()
		CloseStore()

		_, err := os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("init failure", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &StoreManager{}

		err := InitStore("oracle", "")
		assert.Error(t, err)
	})
}

func TestClearStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""), "missing file is fine")
	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	assert.Error(t, ClearStore("oracle", "", ""))
}

func TestExecuteReadingExport(t *testing.T) {
	ctx := context.Background()

	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteReadingExport(ctx, NewNoneStore(), "", &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("empty store", func(t *testing.T) {
		err := ExecuteReadingExport(ctx, newSQLiteStore(t), filepath.Join(t.TempDir(), "out.parquet"), &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrNothingToExport)
	})

	t.Run("writes parquet", func(t *testing.T) {
		rs := newSQLiteStore(t)
		for i := range 3 {
			_, err := rs.Record(ctx, "kitchen", readingAt("kitchen", 25, time.Duration(i)*time.Second), verdictOf(0, schema.LevelSafe))
			require.NoError(t, err)
		}
		out := filepath.Join(t.TempDir(), "out.parquet")
		var buf bytes.Buffer

		require.NoError(t, ExecuteReadingExport(ctx, rs, out, &buf))
		assert.Contains(t, buf.String(), "Exported 3 readings")
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})
}

func TestReadAllPages(t *testing.T) {
	ctx := context.Background()
	ms := &MockReadingStore{}

	full := make([]schema.ReadingRecord, schema.MaxLimit)
	ms.On("List", ctx, schema.ListQuery{Page: 1, Limit: schema.MaxLimit}).
		Return(schema.ReadingPage{TotalCount: schema.MaxLimit + 1, Data: full}, nil)
	ms.On("List", ctx, schema.ListQuery{Page: 2, Limit: schema.MaxLimit}).
		Return(schema.ReadingPage{TotalCount: schema.MaxLimit + 1, Data: []schema.ReadingRecord{{ID: 1}}}, nil)

	records, err := ReadAll(ctx, ms, "")
	require.NoError(t, err)
	assert.Len(t, records, schema.MaxLimit+1)
	ms.AssertExpectations(t)
	ms.AssertNumberOfCalls(t, "List", 2)
	ms.AssertNotCalled(t, "List", ctx, mock.MatchedBy(func(q schema.ListQuery) bool { return q.Page > 2 }))
}

func TestDBTimeScan(t *testing.T) {
	tests := []struct {
		name  string
		src   any
		valid bool
		err   bool
	}{
		{"nil", nil, false, false},
		{"time", baseTime, true, false},
		{"sqlite text", "2026-03-01T12:00:00.000000000Z", true, false},
		{"mysql bytes", []byte("2026-03-01 12:00:00.000000"), true, false},
		{"garbage", "yesterday", false, true},
		{"wrong type", 42, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts dbTime
			err := ts.Scan(tt.src)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ts.Valid)
			if tt.valid {
				assert.True(t, baseTime.Equal(ts.Time))
			}
		})
	}
}
