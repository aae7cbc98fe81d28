package cmd

import (
	"os"

	"github.com/huangsam/firewatch/core"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
	"github.com/spf13/cobra"
)

// readingsCmd lists stored readings.
var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "List stored readings, newest first or ranked by risk",
	Long: `List readings from the configured store.

Examples:
  # First page of readings
  firewatch readings

  # One device, 20 per page, second page
  firewatch readings --device-id kitchen --limit 20 --page 2

  # Ten riskiest readings ever stored, as CSV
  firewatch readings --top 10 --output csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		page, _ := flags.GetInt("page")
		limit, _ := flags.GetInt("limit")
		deviceID, _ := flags.GetString("device-id")
		top, _ := flags.GetInt("top")

		q := schema.ListQuery{Page: page, Limit: limit, DeviceID: deviceID}
		return core.ExecuteReadings(rootCtx, cfg, store.Manager.GetReadingStore(), q, top, os.Stdout)
	},
}

// devicesCmd lists devices that have reported.
var devicesCmd = &cobra.Command{
	Use:     "devices",
	Short:   "List devices with reading counts and activity window",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteDevices(rootCtx, cfg, store.Manager.GetReadingStore(), os.Stdout)
	},
}

// statsCmd prints aggregate statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show average, minimum and maximum per signal",
	Long: `Aggregate statistics over the stored readings.

Examples:
  firewatch stats
  firewatch stats --device-id kitchen --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		deviceID, _ := cmd.Flags().GetString("device-id")
		return core.ExecuteStats(rootCtx, cfg, store.Manager.GetReadingStore(), deviceID, os.Stdout)
	},
}

// paramsCmd prints the evaluation parameters after all overrides.
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the thresholds, weights, trend deltas and cooldown in effect",
	Long: `Print the evaluation parameters after defaults, the config file, environment
variables and flags have been merged.

Examples:
  firewatch params
  FIREWATCH_COOLDOWN=2m firewatch params --weights-override temperature:40`,
	PreRunE: configSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteParams(cfg, os.Stdout)
	},
}
