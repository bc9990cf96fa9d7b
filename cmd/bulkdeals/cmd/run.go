package cmd

import (
	"github.com/spf13/cobra"

	"bulk-deals/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the latest disclosures, then show net positions",
	Long: `Run fetches every requested exchange and then shows its net positions.
An exchange that cannot be fetched is shown from its last stored snapshot
if one is still within cache_ttl_minutes.

Example:
  bulkdeals run --sort value`,
	RunE: runRun,
}

var runOpts showOptions

func init() {
	rootCmd.AddCommand(runCmd)
	addShowFlags(runCmd, &runOpts)
	runCmd.Flags().MarkHidden("refresh")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := fetchAll(cmd, runOpts.exchange); err != nil {
		logger.Warn(cmd.Context(), "Fetch failed for every exchange, trying stored snapshots", "error", err)
	}
	o := runOpts
	o.refresh = false
	return show(cmd, o)
}
