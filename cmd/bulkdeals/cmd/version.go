package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulk-deals/internal/trace"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// no config or logger needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", trace.ServiceName, trace.ServiceVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
