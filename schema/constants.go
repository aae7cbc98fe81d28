package schema

import "time"

// Custom string types for type safety.
type (
	// Signal represents one sensor quantity considered by the evaluator.
	Signal string

	// Level represents the severity of a risk verdict.
	Level string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for reading storage.
	DatabaseBackend string

	// StateBackend represents where gatekeeper state is kept.
	StateBackend string

	// LogFormat represents the encoding of structured logs.
	LogFormat string
)

// Signals in evaluation order.
const (
	SignalTemperature Signal = "temperature"
	SignalTVOC        Signal = "tvoc"
	SignalECO2        Signal = "eco2"
	SignalHumidity    Signal = "humidity"
)

// All severity levels, lowest first.
const (
	LevelSafe   Level = "SAFE"
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All state backends supported.
const (
	MemoryState StateBackend = "memory" // default
	RedisState  StateBackend = "redis"
)

// All log formats supported.
const (
	ConsoleLog LogFormat = "console" // default
	JSONLog    LogFormat = "json"
)

// Level score cutoffs, inclusive.
const (
	HighScoreCutoff   = 70
	MediumScoreCutoff = 40
	LowScoreCutoff    = 20
)

// Engine defaults.
const (
	DefaultDeltaBonus = 10
	DefaultCooldown   = 60 * time.Second
	DefaultDeviceID   = "esp32_fire_detector_01"
	MaxScore          = 100
)

// AllSignals lists every signal in evaluation order.
var AllSignals = []Signal{SignalTemperature, SignalTVOC, SignalECO2, SignalHumidity}

// TrendSignals lists the signals eligible for the trend bonus.
var TrendSignals = []Signal{SignalTemperature, SignalTVOC, SignalECO2}

// AllLevels lists every level from lowest to highest severity.
var AllLevels = []Level{LevelSafe, LevelLow, LevelMedium, LevelHigh}

// ValidSignals lists all valid signal names.
var ValidSignals = map[Signal]struct{}{
	SignalTemperature: {},
	SignalTVOC:        {},
	SignalECO2:        {},
	SignalHumidity:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid storage backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidStateBackends lists all valid state backends.
var ValidStateBackends = map[StateBackend]struct{}{
	MemoryState: {},
	RedisState:  {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	ConsoleLog: {},
	JSONLog:    {},
}

// Rank returns the ordinal position of the level, SAFE being 0.
// Unknown levels rank below SAFE.
func (l Level) Rank() int {
	for i, lvl := range AllLevels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// AlertEligible reports whether verdicts at this level may page someone.
func (l Level) AlertEligible() bool {
	return l == LevelMedium || l == LevelHigh
}

// GetDefaultThresholds returns the default absolute thresholds.
func GetDefaultThresholds() ThresholdSet {
	return ThresholdSet{
		Temperature: 30.0,
		TVOC:        300,
		ECO2:        1000,
		HumidityLow: 30,
	}
}

// GetDefaultWeights returns the default signal weights. They sum to 100.
func GetDefaultWeights() WeightSet {
	return WeightSet{
		Temperature: 35,
		TVOC:        25,
		ECO2:        25,
		Humidity:    15,
	}
}

// GetDefaultDeltaThresholds returns the default minimum rises for the trend bonus.
func GetDefaultDeltaThresholds() DeltaThresholdSet {
	return DeltaThresholdSet{
		Temperature: 2.0,
		TVOC:        50,
		ECO2:        200,
	}
}

// GetDefaultParams returns the full default evaluation parameters.
func GetDefaultParams() EvaluationParams {
	return EvaluationParams{
		Thresholds: GetDefaultThresholds(),
		Weights:    GetDefaultWeights(),
		Deltas:     GetDefaultDeltaThresholds(),
		DeltaBonus: DefaultDeltaBonus,
		Cooldown:   DefaultCooldown,
	}
}
