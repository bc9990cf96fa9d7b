package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bulk-deals/internal/logger"
	"bulk-deals/internal/source"
	"bulk-deals/internal/store"
)

var (
	configPath string
	cfg        *store.Config
)

var rootCmd = &cobra.Command{
	Use:   "bulkdeals",
	Short: "Net positions from BSE and NSE bulk deal disclosures",
	Long: `bulkdeals downloads the daily bulk deal disclosures published by BSE and NSE,
offsets each client's buys and sells per security, and reports who ended the day
as a net buyer or net seller, at the price of the side that dominated.

  bulkdeals fetch            download and store today's disclosures
  bulkdeals show             aggregate the stored disclosures and print them
  bulkdeals run              fetch, then show`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Shutdown(context.Background())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
}

func setup(cmd *cobra.Command, args []string) error {
	// .env is optional
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	c, err := store.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}

// newLoader wires sources for an --exchange value
func newLoader(exchangeFlag string) (*source.Loader, *source.Cache, error) {
	exchanges, err := source.ParseExchanges(exchangeFlag)
	if err != nil {
		return nil, nil, err
	}
	return source.NewLoaderFromConfig(cfg, exchanges)
}
