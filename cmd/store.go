package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/firewatch/core"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeMigrateSetup validates configuration without opening the store, so
// migrations can run against a fresh database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	// For SQLite backend with empty connection string, use default path
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.StoreDBConnect == "" {
		cfg.StoreDBConnect = contract.GetDBFilePath()
	}
	return nil
}

// storeCmd focused on reading store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the reading store",
	Long: `Manage the database that holds every evaluated reading.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics and connection info
  export  - Export readings to Parquet for analytics
  clear   - Remove the store entirely
  migrate - Run database schema migrations

Examples:
  # Check store status
  firewatch store status

  # Export for analysis in pandas/DuckDB
  firewatch store export --output-file readings.parquet`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, reading and device counts, the
oldest and newest entries, and the schema version once migrations have run.
When the state backend is redis (config file or FIREWATCH_STATE_BACKEND), the
tracked device count is shown as well.`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.Manager.GetReadingStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(os.Stdout, status)
		if cfg.StateBackend == schema.RedisState {
			if err := core.ExecuteStateStatus(rootCtx, cfg, os.Stdout); err != nil {
				contract.LogWarn("State backend unavailable", err)
			}
		}
	},
}

// storeClearCmd drops the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the reading store",
	Long: `Delete all stored readings together with the schema.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the sensor_data and migration tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  firewatch store export --output-file backup.parquet
  firewatch store clear`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		// storeMigrateSetup fills in the default SQLite path
		if err := store.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Reading store cleared successfully.")
	},
}

// storeExportCmd exports readings to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored readings to Parquet",
	Long: `Export every stored reading with its verdict to a Parquet file.

Requires: --output-file parameter

Examples:
  firewatch store export --output-file readings.parquet
  duckdb -c "SELECT risk_level, count(*) FROM read_parquet('readings.parquet') GROUP BY 1"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteReadingExport(rootCtx, store.Manager.GetReadingStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export readings", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the reading store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the reading store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  firewatch store migrate

  # Rollback to initial state
  firewatch store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("Schema already at version %d.\n", result.ToVersion)
			return
		}
		fmt.Printf("Migrated schema from version %d to %d.\n", result.FromVersion, result.ToVersion)
	},
}
