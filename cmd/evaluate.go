package cmd

import (
	"errors"
	"os"

	"github.com/huangsam/firewatch/core"
	"github.com/huangsam/firewatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// evaluateCmd scores a single reading from flags.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one reading with the configured thresholds and weights",
	Long: `Evaluate a reading passed on the command line and print the verdict.

Only the signals given as flags are considered; the rest are treated as absent.
Pass --prev-* values to include the trend bonus for sharply rising signals.

Examples:
  # Hot and smoky: HIGH
  firewatch evaluate --temperature 31 --tvoc 350

  # Temperature rising from 20 to 23
  firewatch evaluate --temperature 23 --prev-temperature 20

  # Custom thresholds, JSON output
  firewatch evaluate --temperature 28 --thresholds-override temperature:25 --output json`,
	PreRunE: configSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		current := readingFromFlags(flags, "")
		previous := readingFromFlags(flags, "prev-")
		if current.Empty() && !previous.Empty() {
			return errors.New("--prev-* values need at least one current signal")
		}
		current.DeviceID, _ = flags.GetString("device-id")

		var prev *schema.SensorReading
		if !previous.Empty() {
			prev = &previous
		}
		_, err := core.ExecuteEvaluate(rootCtx, cfg, current, prev, os.Stdout)
		return err
	},
}

// readingFromFlags collects the signal flags that were explicitly set.
func readingFromFlags(flags *pflag.FlagSet, prefix string) schema.SensorReading {
	get := func(name string) *float64 {
		if !flags.Changed(prefix + name) {
			return nil
		}
		v, err := flags.GetFloat64(prefix + name)
		if err != nil {
			return nil
		}
		return &v
	}
	return schema.SensorReading{
		Temperature: get("temperature"),
		Humidity:    get("humidity"),
		ECO2:        get("eco2"),
		TVOC:        get("tvoc"),
	}
}
