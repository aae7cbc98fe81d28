// Package cmd defines the command-line interface for firewatch.
package cmd

import (
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(readingsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("thresholds-override", "", "Signal thresholds (format: 'temperature:30,tvoc:300,eco2:1000,humidity:30')")
	rootCmd.PersistentFlags().String("weights-override", "", "Signal weights (format: 'temperature:35,tvoc:25,eco2:25,humidity:15')")
	rootCmd.PersistentFlags().String("deltas-override", "", "Trend deltas (format: 'temperature:2,tvoc:50,eco2:200')")
	rootCmd.PersistentFlags().Int("delta-bonus", schema.DefaultDeltaBonus, "Points added for every sharply rising signal")
	rootCmd.PersistentFlags().String("cooldown", schema.DefaultCooldown.String(), "Minimum time between alerts per device (e.g. 60s, 2m, or seconds)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Reading store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", string(schema.ConsoleLog), "Log format: console or json")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "HTTP listen address")
	serveCmd.Flags().String("state-backend", string(schema.MemoryState), "Gatekeeper state backend: memory or redis")
	serveCmd.Flags().String("redis-addr", contract.DefaultRedisAddr, "Redis address for the redis state backend")
	serveCmd.Flags().String("redis-password", "", "Redis password (prefer FIREWATCH_REDIS_PASSWORD)")
	serveCmd.Flags().Int("redis-db", 0, "Redis logical database")
	serveCmd.Flags().String("state-ttl", "", "Expire idle device state after this long (0 or empty keeps it forever)")
	serveCmd.Flags().String("mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883 (empty disables MQTT)")
	serveCmd.Flags().String("mqtt-topic", contract.DefaultMQTTTopic, "MQTT topic to subscribe to; '+' matches the device ID")
	serveCmd.Flags().String("mqtt-client-id", contract.DefaultMQTTClientID, "MQTT client ID")
	serveCmd.Flags().String("kafka-brokers", "", "Comma-separated Kafka brokers for alert events (empty disables Kafka)")
	serveCmd.Flags().String("kafka-topic", contract.DefaultKafkaTopic, "Kafka topic for alert events")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Reading values are per invocation, so they stay out of Viper
	for _, name := range []string{"temperature", "humidity", "eco2", "tvoc"} {
		evaluateCmd.Flags().Float64(name, 0, "Current "+name+" value")
		evaluateCmd.Flags().Float64("prev-"+name, 0, "Previous "+name+" value for trend scoring")
	}
	evaluateCmd.Flags().String("device-id", "", "Device ID shown with the verdict")

	readingsCmd.Flags().Int("page", 1, "Page number")
	readingsCmd.Flags().IntP("limit", "l", schema.DefaultLimit, "Readings per page")
	readingsCmd.Flags().String("device-id", "", "Restrict to one device")
	readingsCmd.Flags().Int("top", 0, "Rank all readings by risk and show the top N instead of a page")
	statsCmd.Flags().String("device-id", "", "Restrict to one device")

	// Bind all flags of cleanupCmd to Viper
	cleanupCmd.Flags().Int("days", contract.DefaultRetentionDays, "Delete readings observed more than this many days ago")
	if err := viper.BindPFlags(cleanupCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cleanup flags", err)
	}
	cleanupCmd.Flags().Bool("all", false, "Delete every reading and reset IDs")
	cleanupCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt for --all")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
