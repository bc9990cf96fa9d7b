package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bsePage(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "..", "internal", "source", "testdata", "bse_bulk_deals.html"))
	require.NoError(t, err)
	return b
}

func writeTestConfig(t *testing.T, bseURL string) (path, reportDir string) {
	t.Helper()
	dir := t.TempDir()
	reportDir = filepath.Join(dir, "reports")
	body := fmt.Sprintf(`
data_dir: %s
exchanges:
  bse:
    url: %s
    timeout_seconds: 2
  nse:
    home_url: http://127.0.0.1:1/report
    api_url: http://127.0.0.1:1/api
    prime_delay_ms: 1
    timeout_seconds: 1
output:
  dir: %s
`, filepath.Join(dir, "data"), bseURL, reportDir)
	path = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, reportDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFetchThenShowCSV(t *testing.T) {
	page := bsePage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(page)
	}))
	defer srv.Close()
	cfgPath, _ := writeTestConfig(t, srv.URL+"/bulk_deals.aspx")

	out, err := execute(t, "--config", cfgPath, "fetch", "--exchange", "bse")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ BSE: stored")

	out, err = execute(t, "--config", cfgPath, "show", "--exchange", "bse", "--format", "csv", "--sort", "client", "--output", "", "--refresh=false")
	require.NoError(t, err)
	assert.Contains(t, out, "client,security,action,net_quantity,avg_price,net_value\n"+
		"ALPHA FUND,RELIANCE (500325),NET BUY,60000,2450.50,146650000.00\n"+
		"BETA CAPITAL,TCS (532540),NET SELL,5000,3900.00,19500000.00\n")
}

func TestShowTextSavesReport(t *testing.T) {
	page := bsePage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(page)
	}))
	defer srv.Close()
	cfgPath, reportDir := writeTestConfig(t, srv.URL)

	out, err := execute(t, "--config", cfgPath, "show", "--exchange", "bse", "--format", "text", "--sort", "value", "--output", "", "--refresh", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "🔥 BSE Bulk Deals - Net Positions")
	assert.Contains(t, out, "₹2,450.50")
	assert.Contains(t, out, "💾 BSE report saved to")

	files, err := os.ReadDir(reportDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "bse_bulkdeals_"))
	assert.True(t, strings.HasSuffix(files[0].Name(), ".text"))
}

func TestShowWithoutSnapshotIsUnavailable(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, "http://127.0.0.1:1/")

	out, err := execute(t, "--config", cfgPath, "show", "--exchange", "nse", "--format", "text", "--sort", "client", "--output", "", "--refresh=false", "--save=false")
	require.Error(t, err)
	assert.Contains(t, out, "❌ NSE: source unavailable")
}

func TestShowMalformedSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer srv.Close()
	cfgPath, _ := writeTestConfig(t, srv.URL)

	out, err := execute(t, "--config", cfgPath, "run", "--exchange", "bse", "--format", "text", "--sort", "client", "--output", "", "--save=false")
	require.Error(t, err)
	assert.Contains(t, out, "✅ BSE: stored")
	assert.Contains(t, out, "❌ BSE: source malformed")
}

func TestFetchAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	cfgPath, _ := writeTestConfig(t, srv.URL)

	out, err := execute(t, "--config", cfgPath, "fetch", "--exchange", "all")
	require.Error(t, err)
	assert.Contains(t, out, "❌ BSE: source unavailable")
	assert.Contains(t, out, "❌ NSE: source unavailable")
}

func TestShowOutputFile(t *testing.T) {
	page := bsePage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(page)
	}))
	defer srv.Close()
	cfgPath, _ := writeTestConfig(t, srv.URL)
	target := filepath.Join(t.TempDir(), "deals.json")

	out, err := execute(t, "--config", cfgPath, "show", "--exchange", "bse", "--format", "json", "--sort", "client", "--output", target, "--refresh", "--save=false")
	require.NoError(t, err)
	assert.Contains(t, out, "📄 Report written to")

	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"exchange": "BSE"`)
	assert.Contains(t, string(b), `"client": "ALPHA FUND"`)
}

func TestClean(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, "http://127.0.0.1:1/")
	out, err := execute(t, "--config", cfgPath, "clean", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed all snapshots")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bulk-deals version")
}
