package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"

	"bulk-deals/internal/deals"
)

// Format specifies the output format for reports
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a --format value. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

const (
	timeLayout = "2006-01-02 15:04:05"
	fileLayout = "2006-01-02_15-04-05"
)

// Reporter renders reports and writes them to disk
type Reporter struct {
	outputDir string
}

func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// Generate renders report in the given format
func (r *Reporter) Generate(report *Report, format Format) (string, error) {
	switch format {
	case FormatText:
		return r.generateText(report), nil
	case FormatJSON:
		return r.generateJSON(report)
	case FormatCSV:
		return r.generateCSV(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Save renders report and writes it under the output dir, returning the path
func (r *Reporter) Save(report *Report, format Format) (string, error) {
	content, err := r.Generate(report, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_bulkdeals_%s.%s",
		strings.ToLower(report.Exchange), report.GeneratedAt.Format(fileLayout), format)
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Reporter) generateJSON(report *Report) (string, error) {
	out := *report
	if out.Positions == nil {
		out.Positions = []deals.NetPosition{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

var textColumns = []string{
	"Client Name", "Security Name (Symbol)", "Action", "Net Shares", "Avg. Price (Dom.)", "Net Traded Value",
}

func (r *Reporter) generateText(report *Report) string {
	var sb strings.Builder

	title := fmt.Sprintf("🔥 %s Bulk Deals - Net Positions", report.Exchange)
	sb.WriteString(title + "\n")
	sb.WriteString("Dominant side pricing\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(report.Positions) == 0 {
		fmt.Fprintf(&sb, "No net bulk deal positions to display for %s based on the current data.\n", report.Exchange)
		return sb.String()
	}

	s := report.Summary
	fmt.Fprintf(&sb, "Clients: %d | Securities: %d | Positions: %d (net buy %d, net sell %d)\n",
		s.Clients, s.Securities, s.Positions, s.NetBuys, s.NetSells)
	if !report.FetchedAt.IsZero() {
		fmt.Fprintf(&sb, "Data fetched: %s\n", report.FetchedAt.Format(timeLayout))
	}
	sb.WriteString("\n")

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(textColumns, "\t"))
	rules := make([]string, len(textColumns))
	for i, c := range textColumns {
		rules[i] = strings.Repeat("-", len([]rune(c)))
	}
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	for _, p := range report.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Client, p.Security, p.Action, Shares(p.NetQuantity), Rupees(p.AveragePrice), Rupees(p.NetValue))
	}
	tw.Flush()

	sb.WriteString(strings.Repeat("-", 80) + "\n")
	fmt.Fprintf(&sb, "Run %s generated %s\n", report.RunID, report.GeneratedAt.Format(timeLayout))
	return sb.String()
}

type csvRow struct {
	Client      string `csv:"client"`
	Security    string `csv:"security"`
	Action      string `csv:"action"`
	NetQuantity int64  `csv:"net_quantity"`
	AvgPrice    string `csv:"avg_price"`
	NetValue    string `csv:"net_value"`
}

func (r *Reporter) generateCSV(report *Report) (string, error) {
	rows := make([]*csvRow, 0, len(report.Positions))
	for _, p := range report.Positions {
		rows = append(rows, &csvRow{
			Client:      p.Client,
			Security:    p.Security,
			Action:      string(p.Action),
			NetQuantity: p.NetQuantity,
			AvgPrice:    p.AveragePrice.StringFixed(2),
			NetValue:    p.NetValue.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if len(rows) == 0 {
		buf.WriteString("client,security,action,net_quantity,avg_price,net_value\n")
		return buf.String(), nil
	}
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}
