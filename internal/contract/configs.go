package contract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/firewatch/schema"
)

// Default values for configuration.
const (
	DefaultListenAddr    = ":5000"
	DefaultMQTTTopic     = "firewatch/+/readings"
	DefaultMQTTClientID  = "firewatch"
	DefaultKafkaTopic    = "firewatch.alerts"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRetentionDays = 7
	DefaultLogLevel      = "info"
)

// ErrInvalidConfig is returned for any configuration value that fails validation.
// Evaluation never starts with a configuration that produced this error.
var ErrInvalidConfig = errors.New("invalid configuration")

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ThresholdsRawInput holds absolute threshold overrides from the YAML config file.
// Nil fields keep their defaults.
type ThresholdsRawInput struct {
	Temperature *float64 `mapstructure:"temperature"`
	TVOC        *float64 `mapstructure:"tvoc"`
	ECO2        *float64 `mapstructure:"eco2"`
	HumidityLow *float64 `mapstructure:"humidity_low"`
}

// WeightsRawInput holds weight overrides from the YAML config file.
type WeightsRawInput struct {
	Temperature *int `mapstructure:"temperature"`
	TVOC        *int `mapstructure:"tvoc"`
	ECO2        *int `mapstructure:"eco2"`
	Humidity    *int `mapstructure:"humidity"`
}

// DeltasRawInput holds trend delta overrides from the YAML config file.
type DeltasRawInput struct {
	Temperature *float64 `mapstructure:"temperature"`
	TVOC        *float64 `mapstructure:"tvoc"`
	ECO2        *float64 `mapstructure:"eco2"`
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Params schema.EvaluationParams

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	StateBackend  schema.StateBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StateTTL      time.Duration

	ListenAddr string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat schema.LogFormat

	RetentionDays int
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Engine parameters ---
	ThresholdsStr string `mapstructure:"thresholds-override"`
	WeightsStr    string `mapstructure:"weights-override"`
	DeltasStr     string `mapstructure:"deltas-override"`
	DeltaBonus    int    `mapstructure:"delta-bonus"`
	Cooldown      string `mapstructure:"cooldown"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Storage and state ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	StateBackend   string `mapstructure:"state-backend"`
	RedisAddr      string `mapstructure:"redis-addr"`
	RedisPassword  string `mapstructure:"redis-password"`
	RedisDB        int    `mapstructure:"redis-db"`
	StateTTL       string `mapstructure:"state-ttl"`

	// --- Transports ---
	Listen       string `mapstructure:"listen"`
	MQTTBroker   string `mapstructure:"mqtt-broker"`
	MQTTTopic    string `mapstructure:"mqtt-topic"`
	MQTTClientID string `mapstructure:"mqtt-client-id"`
	KafkaBrokers string `mapstructure:"kafka-brokers"`
	KafkaTopic   string `mapstructure:"kafka-topic"`

	// --- Logging ---
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// --- Cleanup ---
	RetentionDays int `mapstructure:"days"`

	// --- Sections from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
	Weights    WeightsRawInput    `mapstructure:"weights"`
	Deltas     DeltasRawInput     `mapstructure:"deltas"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processEngineParams(cfg, input); err != nil {
		return err
	}
	if err := processTransports(cfg, input); err != nil {
		return err
	}
	return processLogging(cfg, input)
}

// invalid wraps ErrInvalidConfig with the offending key.
func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

// validateSimpleInputs processes output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile

	if input.Width < 0 {
		return invalid("width", "must not be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	colors := true
	if input.Color != "" {
		v, err := ParseBoolString(input.Color)
		if err != nil {
			return invalid("color", "%v", err)
		}
		colors = v
	}
	cfg.UseColors = colors

	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return invalid("output", "'%s' must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return invalid("output-file", "is required for parquet output")
	}

	if input.RetentionDays < 0 {
		return invalid("days", "must not be negative (received %d)", input.RetentionDays)
	}
	cfg.RetentionDays = input.RetentionDays
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates store and state backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := input.StoreBackend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return invalid("store-backend", "'%s' must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	state := input.StateBackend
	if state == "" {
		state = string(schema.MemoryState)
	}
	cfg.StateBackend = schema.StateBackend(strings.ToLower(state))
	if _, ok := schema.ValidStateBackends[cfg.StateBackend]; !ok {
		return invalid("state-backend", "'%s' must be memory, redis", input.StateBackend)
	}
	cfg.RedisAddr = input.RedisAddr
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = DefaultRedisAddr
	}
	cfg.RedisPassword = input.RedisPassword
	if input.RedisDB < 0 {
		return invalid("redis-db", "must not be negative (received %d)", input.RedisDB)
	}
	cfg.RedisDB = input.RedisDB

	if input.StateTTL != "" {
		ttl, err := ParseDurationOrSeconds(input.StateTTL)
		if err != nil {
			return invalid("state-ttl", "%v", err)
		}
		if ttl < 0 {
			return invalid("state-ttl", "must not be negative (received %s)", ttl)
		}
		cfg.StateTTL = ttl
	}
	return nil
}

// processEngineParams builds the evaluation parameters from defaults, config file
// sections and override strings, in that order of precedence.
func processEngineParams(cfg *Config, input *ConfigRawInput) error {
	p := schema.GetDefaultParams()

	applyThresholdsRaw(&p.Thresholds, input.Thresholds)
	applyWeightsRaw(&p.Weights, input.Weights)
	applyDeltasRaw(&p.Deltas, input.Deltas)

	if input.ThresholdsStr != "" {
		parsed, err := ParseSignalValues(input.ThresholdsStr, schema.AllSignals)
		if err != nil {
			return invalid("thresholds-override", "%v", err)
		}
		p.Thresholds = MergeThresholds(p.Thresholds, parsed)
	}
	if input.WeightsStr != "" {
		parsed, err := ParseSignalValues(input.WeightsStr, schema.AllSignals)
		if err != nil {
			return invalid("weights-override", "%v", err)
		}
		merged, err := MergeWeights(p.Weights, parsed)
		if err != nil {
			return invalid("weights-override", "%v", err)
		}
		p.Weights = merged
	}
	if input.DeltasStr != "" {
		parsed, err := ParseSignalValues(input.DeltasStr, schema.TrendSignals)
		if err != nil {
			return invalid("deltas-override", "%v", err)
		}
		p.Deltas = MergeDeltas(p.Deltas, parsed)
	}

	p.DeltaBonus = input.DeltaBonus

	if input.Cooldown != "" {
		cooldown, err := ParseDurationOrSeconds(input.Cooldown)
		if err != nil {
			return invalid("cooldown", "%v", err)
		}
		p.Cooldown = cooldown
	}

	if err := ValidateParams(p); err != nil {
		return err
	}
	cfg.Params = p
	return nil
}

// ValidateParams rejects non-finite or negative thresholds, weights, deltas,
// bonus or cooldown.
func ValidateParams(p schema.EvaluationParams) error {
	floats := []struct {
		key   string
		value float64
	}{
		{"thresholds.temperature", p.Thresholds.Temperature},
		{"thresholds.tvoc", p.Thresholds.TVOC},
		{"thresholds.eco2", p.Thresholds.ECO2},
		{"thresholds.humidity_low", p.Thresholds.HumidityLow},
		{"deltas.temperature", p.Deltas.Temperature},
		{"deltas.tvoc", p.Deltas.TVOC},
		{"deltas.eco2", p.Deltas.ECO2},
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return invalid(f.key, "must be finite (received %v)", f.value)
		}
		if f.value < 0 {
			return invalid(f.key, "must not be negative (received %v)", f.value)
		}
	}

	ints := []struct {
		key   string
		value int
	}{
		{"weights.temperature", p.Weights.Temperature},
		{"weights.tvoc", p.Weights.TVOC},
		{"weights.eco2", p.Weights.ECO2},
		{"weights.humidity", p.Weights.Humidity},
		{"delta-bonus", p.DeltaBonus},
	}
	for _, i := range ints {
		if i.value < 0 {
			return invalid(i.key, "must not be negative (received %d)", i.value)
		}
	}

	if p.Cooldown < 0 {
		return invalid("cooldown", "must not be negative (received %s)", p.Cooldown)
	}
	return nil
}

// processTransports handles the HTTP, MQTT and Kafka settings.
func processTransports(cfg *Config, input *ConfigRawInput) error {
	cfg.ListenAddr = strings.TrimSpace(input.Listen)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	cfg.MQTTBroker = strings.TrimSpace(input.MQTTBroker)
	cfg.MQTTTopic = strings.TrimSpace(input.MQTTTopic)
	if cfg.MQTTTopic == "" {
		cfg.MQTTTopic = DefaultMQTTTopic
	}
	cfg.MQTTClientID = strings.TrimSpace(input.MQTTClientID)
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = DefaultMQTTClientID
	}
	if cfg.MQTTBroker != "" && !strings.Contains(cfg.MQTTBroker, "://") {
		return invalid("mqtt-broker", "'%s' must include a scheme such as tcp://", cfg.MQTTBroker)
	}

	cfg.KafkaBrokers = nil
	for part := range strings.SplitSeq(input.KafkaBrokers, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
		}
	}
	cfg.KafkaTopic = strings.TrimSpace(input.KafkaTopic)
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = DefaultKafkaTopic
	}
	return nil
}

// processLogging validates level and format.
func processLogging(cfg *Config, input *ConfigRawInput) error {
	level := strings.ToLower(strings.TrimSpace(input.LogLevel))
	if level == "" {
		level = DefaultLogLevel
	}
	switch level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return invalid("log-level", "'%s' is not a known level", input.LogLevel)
	}
	cfg.LogLevel = level

	format := input.LogFormat
	if format == "" {
		format = string(schema.ConsoleLog)
	}
	cfg.LogFormat = schema.LogFormat(strings.ToLower(format))
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return invalid("log-format", "'%s' must be console, json", input.LogFormat)
	}
	return nil
}

func applyThresholdsRaw(t *schema.ThresholdSet, raw ThresholdsRawInput) {
	if raw.Temperature != nil {
		t.Temperature = *raw.Temperature
	}
	if raw.TVOC != nil {
		t.TVOC = *raw.TVOC
	}
	if raw.ECO2 != nil {
		t.ECO2 = *raw.ECO2
	}
	if raw.HumidityLow != nil {
		t.HumidityLow = *raw.HumidityLow
	}
}

func applyWeightsRaw(w *schema.WeightSet, raw WeightsRawInput) {
	if raw.Temperature != nil {
		w.Temperature = *raw.Temperature
	}
	if raw.TVOC != nil {
		w.TVOC = *raw.TVOC
	}
	if raw.ECO2 != nil {
		w.ECO2 = *raw.ECO2
	}
	if raw.Humidity != nil {
		w.Humidity = *raw.Humidity
	}
}

func applyDeltasRaw(d *schema.DeltaThresholdSet, raw DeltasRawInput) {
	if raw.Temperature != nil {
		d.Temperature = *raw.Temperature
	}
	if raw.TVOC != nil {
		d.TVOC = *raw.TVOC
	}
	if raw.ECO2 != nil {
		d.ECO2 = *raw.ECO2
	}
}

// MergeThresholds overlays parsed values on top of base.
func MergeThresholds(base schema.ThresholdSet, values map[schema.Signal]float64) schema.ThresholdSet {
	for sig, v := range values {
		switch sig {
		case schema.SignalTemperature:
			base.Temperature = v
		case schema.SignalTVOC:
			base.TVOC = v
		case schema.SignalECO2:
			base.ECO2 = v
		case schema.SignalHumidity:
			base.HumidityLow = v
		}
	}
	return base
}

// MergeWeights overlays parsed values on top of base. Weights must be whole numbers.
func MergeWeights(base schema.WeightSet, values map[schema.Signal]float64) (schema.WeightSet, error) {
	for sig, v := range values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return base, fmt.Errorf("weight for %s must be a whole number (received %v)", sig, v)
		}
		iv := int(v)
		switch sig {
		case schema.SignalTemperature:
			base.Temperature = iv
		case schema.SignalTVOC:
			base.TVOC = iv
		case schema.SignalECO2:
			base.ECO2 = iv
		case schema.SignalHumidity:
			base.Humidity = iv
		}
	}
	return base, nil
}

// MergeDeltas overlays parsed values on top of base.
func MergeDeltas(base schema.DeltaThresholdSet, values map[schema.Signal]float64) schema.DeltaThresholdSet {
	for sig, v := range values {
		switch sig {
		case schema.SignalTemperature:
			base.Temperature = v
		case schema.SignalTVOC:
			base.TVOC = v
		case schema.SignalECO2:
			base.ECO2 = v
		}
	}
	return base
}

// ParseSignalValues parses a string like "temperature:32,tvoc:250" into a map
// of Signal to float64. Only the allowed signals are accepted; "humidity_low"
// and "temp" are accepted as aliases.
func ParseSignalValues(s string, allowed []schema.Signal) (map[schema.Signal]float64, error) {
	values := make(map[schema.Signal]float64)

	if s == "" {
		return values, nil
	}

	permitted := make(map[schema.Signal]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, sig := range allowed {
		permitted[sig] = struct{}{}
		names = append(names, string(sig))
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid format '%s', expected 'signal:value'", part)
		}

		keyStr := strings.ToLower(strings.TrimSpace(keyValue[0]))
		valueStr := strings.TrimSpace(keyValue[1])

		var sig schema.Signal
		switch keyStr {
		case "temp":
			sig = schema.SignalTemperature
		case "humidity_low", "hum":
			sig = schema.SignalHumidity
		default:
			sig = schema.Signal(keyStr)
		}
		if _, ok := permitted[sig]; !ok {
			return nil, fmt.Errorf("invalid signal '%s', must be one of %s", keyStr, strings.Join(names, ", "))
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value '%s' for %s: %w", valueStr, sig, err)
		}

		values[sig] = value
	}

	return values, nil
}

// ParseDurationOrSeconds accepts either a Go duration ("90s", "2m") or a bare
// number of seconds ("60").
func ParseDurationOrSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("duration '%s' must be finite", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	return d, nil
}
