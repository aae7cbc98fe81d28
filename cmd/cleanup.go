package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/firewatch/core"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cleanupCmd removes old readings.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete readings older than the retention window",
	Long: `Delete stored readings observed more than --days days ago (default 7).

With --all every reading is deleted and the ID sequence is reset. --all asks
for confirmation on a terminal; pass --yes to skip it in scripts.

Examples:
  # Keep one month of readings
  firewatch cleanup --days 30

  # Start over
  firewatch cleanup --all --yes`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		all, _ := cmd.Flags().GetBool("all")
		yes, _ := cmd.Flags().GetBool("yes")
		if all && !yes {
			ok, err := confirm("Delete ALL stored readings?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cleanup canceled.")
				return nil
			}
		}
		_, err := core.ExecuteCleanup(rootCtx, cfg, store.Manager.GetReadingStore(), all, os.Stdout)
		return err
	},
}

// confirm asks a yes/no question on the terminal. It refuses to guess when
// stdin is not interactive.
func confirm(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to delete without confirmation: pass --yes when stdin is not a terminal")
	}
	fmt.Printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
