package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bulk-deals/internal/deals"
	"bulk-deals/internal/logger"
	"bulk-deals/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print net positions from the stored disclosures",
	Long: `Show aggregates the stored bulk deals of each requested exchange into net
positions per client and security and renders them.

Examples:
  bulkdeals show
  bulkdeals show --exchange bse --sort value
  bulkdeals show --format csv --output deals.csv
  bulkdeals show --refresh --save`,
	RunE: runShow,
}

type showOptions struct {
	exchange string
	format   string
	sort     string
	output   string
	save     bool
	refresh  bool
}

var showOpts showOptions

func init() {
	rootCmd.AddCommand(showCmd)
	addShowFlags(showCmd, &showOpts)
}

func addShowFlags(c *cobra.Command, o *showOptions) {
	c.Flags().StringVarP(&o.exchange, "exchange", "e", "all", "exchange to show: bse, nse or all")
	c.Flags().StringVarP(&o.format, "format", "f", "", "output format: text, json or csv (default from config)")
	c.Flags().StringVarP(&o.sort, "sort", "s", "", "sort by client, security, value or quantity (default from config)")
	c.Flags().StringVarP(&o.output, "output", "o", "", "write the rendered reports to this file instead of stdout")
	c.Flags().BoolVar(&o.save, "save", false, "also save each report under output.dir")
	c.Flags().BoolVar(&o.refresh, "refresh", false, "fetch before showing instead of reading the stored snapshot")
}

func runShow(cmd *cobra.Command, args []string) error {
	return show(cmd, showOpts)
}

func show(cmd *cobra.Command, o showOptions) error {
	format, err := report.ParseFormat(firstNonEmpty(o.format, cfg.Output.Format))
	if err != nil {
		return err
	}
	sortKey, err := report.ParseSortKey(firstNonEmpty(o.sort, cfg.Output.Sort))
	if err != nil {
		return err
	}
	loader, _, err := newLoader(o.exchange)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reporter := report.NewReporter(cfg.Output.Dir)

	var rendered []string
	for _, ex := range loader.Exchanges() {
		snap, err := loader.Load(ctx, ex, o.refresh)
		if err != nil {
			printSourceError(out, ex, err)
			continue
		}

		positions, err := deals.AggregateParallel(ctx, snap.Deals, cfg.AggregateWorkers)
		if err != nil {
			return fmt.Errorf("%s: aggregate: %w", ex, err)
		}
		logger.Info(ctx, "Aggregated bulk deals",
			"exchange", ex,
			"deals", len(snap.Deals),
			"skipped", snap.Skipped,
			"positions", len(positions),
		)

		rep := report.Build(ex, snap.FetchedAt, positions, sortKey)
		content, err := reporter.Generate(rep, format)
		if err != nil {
			return err
		}
		rendered = append(rendered, content)

		if o.save {
			path, err := reporter.Save(rep, format)
			if err != nil {
				return fmt.Errorf("%s: save report: %w", ex, err)
			}
			fmt.Fprintf(out, "💾 %s report saved to %s\n", ex, path)
		}
	}

	if len(rendered) == 0 {
		return errors.New("no exchange could be shown")
	}

	if o.output != "" {
		if err := os.WriteFile(o.output, []byte(strings.Join(rendered, "\n")), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.output, err)
		}
		fmt.Fprintf(out, "📄 Report written to %s\n", o.output)
		return nil
	}
	for _, content := range rendered {
		fmt.Fprintln(out, content)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
