package algo

import (
	"testing"
	"time"

	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/assert"
)

func TestRankReadings(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []schema.ReadingRecord{
		{ID: 1, RiskScore: 20, ObservedAt: base},
		{ID: 2, RiskScore: 85, ObservedAt: base.Add(time.Minute)},
		{ID: 3, RiskScore: 20, ObservedAt: base.Add(2 * time.Minute)},
		{ID: 4, RiskScore: 0, ObservedAt: base.Add(3 * time.Minute)},
	}

	ranked := RankReadings(records, 3)
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{2, 3, 1}, ids, "ties go to the newest reading")

	assert.Len(t, RankReadings(records, 10), 4)
	assert.Empty(t, RankReadings(records, 0))
	assert.Empty(t, RankReadings(nil, 5))
}

func TestRankDevices(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	devices := []schema.DeviceSummary{
		{DeviceID: "a", LastData: base},
		{DeviceID: "b", LastData: base.Add(time.Hour)},
		{DeviceID: "c", LastData: base.Add(-time.Hour)},
	}
	ranked := RankDevices(devices)
	assert.Equal(t, "b", ranked[0].DeviceID)
	assert.Equal(t, "a", ranked[1].DeviceID)
	assert.Equal(t, "c", ranked[2].DeviceID)
}
