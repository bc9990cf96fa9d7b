package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulk-deals/internal/source"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stored snapshots",
	Long:  `Clean removes expired snapshots from data_dir, or every snapshot with --all.`,
	RunE:  runClean,
}

var cleanAll bool

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove every snapshot, not just expired ones")
}

func runClean(cmd *cobra.Command, args []string) error {
	cache, err := source.NewCache(cfg.DataDir, cfg.CacheTTL())
	if err != nil {
		return err
	}
	if cleanAll {
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🧹 Removed all snapshots from %s\n", cache.Dir())
		return nil
	}
	removed, err := cache.CleanupExpired()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🧹 Removed %d expired snapshot(s) from %s\n", removed, cache.Dir())
	return nil
}
