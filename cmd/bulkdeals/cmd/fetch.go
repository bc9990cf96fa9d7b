package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bulk-deals/internal/logger"
	"bulk-deals/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and store the latest bulk deal disclosures",
	Long: `Fetch downloads the bulk deal disclosure of each requested exchange and stores
the raw payload under data_dir, replacing the previous snapshot.

Example:
  bulkdeals fetch --exchange nse`,
	RunE: runFetch,
}

var fetchExchange string

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchExchange, "exchange", "e", "all", "exchange to fetch: bse, nse or all")
}

func runFetch(cmd *cobra.Command, args []string) error {
	return fetchAll(cmd, fetchExchange)
}

// fetchAll refreshes every requested exchange and fails only if none succeeded
func fetchAll(cmd *cobra.Command, exchangeFlag string) error {
	loader, cache, err := newLoader(exchangeFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	ok := 0
	for _, ex := range loader.Exchanges() {
		entry, err := loader.Refresh(ctx, ex)
		if err != nil {
			printSourceError(out, ex, err)
			continue
		}
		ok++
		fmt.Fprintf(out, "✅ %s: stored %d bytes at %s\n", ex, len(entry.Data), entry.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if removed, err := cache.CleanupExpired(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to clean up snapshots", err)
	} else if removed > 0 {
		logger.Info(ctx, "Removed expired snapshots", "count", removed)
	}

	if ok == 0 {
		return errors.New("no exchange could be fetched")
	}
	return nil
}

func printSourceError(out io.Writer, exchange string, err error) {
	switch {
	case errors.Is(err, source.ErrUnavailable):
		fmt.Fprintf(out, "❌ %s: source unavailable: %v\n", exchange, err)
	case errors.Is(err, source.ErrMalformed):
		fmt.Fprintf(out, "❌ %s: source malformed: %v\n", exchange, err)
	default:
		fmt.Fprintf(out, "❌ %s: %v\n", exchange, err)
	}
}
