package schema

// EnrichedReading adds presentation data to a ReadingRecord.
type EnrichedReading struct {
	Rank   int    `json:"rank"`
	Marker string `json:"marker"`
	ReadingRecord
}

// GetLevelMarker returns the colored marker shown next to a level.
func GetLevelMarker(level Level) string {
	switch level {
	case LevelHigh:
		return "🔴"
	case LevelMedium:
		return "🟡"
	case LevelLow:
		return "🟠"
	case LevelSafe:
		return "🟢"
	default:
		return "⚪"
	}
}

// GetLevelMessage returns the headline shown for a level.
func GetLevelMessage(level Level) string {
	switch level {
	case LevelHigh:
		return "Fire risk - check immediately!"
	case LevelMedium:
		return "Caution - increase monitoring"
	case LevelLow:
		return "Minor anomaly - keep observing"
	case LevelSafe:
		return "Normal range"
	default:
		return "Unknown risk level"
	}
}

// EnrichReadings adds rank and marker to a list of stored readings.
func EnrichReadings(records []ReadingRecord) []EnrichedReading {
	output := make([]EnrichedReading, len(records))
	for i, r := range records {
		output[i] = EnrichedReading{
			Rank:          i + 1,
			Marker:        GetLevelMarker(r.RiskLevel),
			ReadingRecord: r,
		}
	}
	return output
}
