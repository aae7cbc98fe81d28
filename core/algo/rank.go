package algo

import (
	"sort"

	"github.com/huangsam/firewatch/schema"
)

// RankReadings sorts readings by risk score in descending order, newest first
// on ties, and returns the top 'limit' readings. If limit is greater than the
// number of readings, all readings are returned in sorted order.
func RankReadings(records []schema.ReadingRecord, limit int) []schema.ReadingRecord {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RiskScore != records[j].RiskScore {
			return records[i].RiskScore > records[j].RiskScore
		}
		return records[i].ObservedAt.After(records[j].ObservedAt)
	})
	if limit >= 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// RankDevices sorts device summaries by their most recent data, newest first.
func RankDevices(devices []schema.DeviceSummary) []schema.DeviceSummary {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].LastData.After(devices[j].LastData)
	})
	return devices
}
