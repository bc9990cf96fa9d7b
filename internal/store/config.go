package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBSEURL     = "https://www.bseindia.com/markets/equity/EQReports/bulk_deals.aspx"
	DefaultNSEHomeURL = "https://www.nseindia.com/report-detail/display-bulk-and-block-deals"
	DefaultNSEAPIURL  = "https://www.nseindia.com/api/historicalOR/bulk-block-short-deals"
)

type Config struct {
	DataDir          string `yaml:"data_dir"`
	CacheTTLMinutes  int    `yaml:"cache_ttl_minutes"`
	AggregateWorkers int    `yaml:"aggregate_workers"`
	Exchanges        struct {
		BSE struct {
			Enabled        bool   `yaml:"enabled"`
			URL            string `yaml:"url"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"bse"`
		NSE struct {
			Enabled        bool   `yaml:"enabled"`
			HomeURL        string `yaml:"home_url"`
			APIURL         string `yaml:"api_url"`
			LookbackDays   int    `yaml:"lookback_days"`
			PrimeDelayMS   int    `yaml:"prime_delay_ms"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
			Retries        int    `yaml:"retries"`
		} `yaml:"nse"`
	} `yaml:"exchanges"`
	Output struct {
		Format string `yaml:"format"`
		Dir    string `yaml:"dir"`
		Sort   string `yaml:"sort"`
	} `yaml:"output"`
}

// Default returns the configuration used when no config file exists.
// A config file is decoded on top of it, so a key set to 0 stays 0.
func Default() *Config {
	c := &Config{
		DataDir:         "data",
		CacheTTLMinutes: 12 * 60,
	}
	c.Exchanges.BSE.Enabled = true
	c.Exchanges.BSE.TimeoutSeconds = 10
	c.Exchanges.NSE.Enabled = true
	c.Exchanges.NSE.LookbackDays = 1
	c.Exchanges.NSE.PrimeDelayMS = 2000
	c.Exchanges.NSE.TimeoutSeconds = 10
	c.applyDefaults()
	return c
}

// applyDefaults fills strings left empty, including ones a file blanked out
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Exchanges.BSE.URL == "" {
		c.Exchanges.BSE.URL = DefaultBSEURL
	}
	if c.Exchanges.NSE.HomeURL == "" {
		c.Exchanges.NSE.HomeURL = DefaultNSEHomeURL
	}
	if c.Exchanges.NSE.APIURL == "" {
		c.Exchanges.NSE.APIURL = DefaultNSEAPIURL
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "reports"
	}
	if c.Output.Sort == "" {
		c.Output.Sort = "client"
	}
}

func (c *Config) Validate() error {
	if !c.Exchanges.BSE.Enabled && !c.Exchanges.NSE.Enabled {
		return errors.New("at least one of exchanges.bse or exchanges.nse must be enabled")
	}
	if c.CacheTTLMinutes < 0 {
		return fmt.Errorf("cache_ttl_minutes must not be negative, got %d", c.CacheTTLMinutes)
	}
	if c.AggregateWorkers < 0 {
		return fmt.Errorf("aggregate_workers must not be negative, got %d", c.AggregateWorkers)
	}
	if c.Exchanges.NSE.LookbackDays < 0 {
		return fmt.Errorf("exchanges.nse.lookback_days must not be negative, got %d", c.Exchanges.NSE.LookbackDays)
	}
	if c.Exchanges.NSE.Retries < 0 {
		return fmt.Errorf("exchanges.nse.retries must not be negative, got %d", c.Exchanges.NSE.Retries)
	}
	if c.Exchanges.NSE.PrimeDelayMS < 0 {
		return fmt.Errorf("exchanges.nse.prime_delay_ms must not be negative, got %d", c.Exchanges.NSE.PrimeDelayMS)
	}
	if c.Exchanges.BSE.TimeoutSeconds < 0 || c.Exchanges.NSE.TimeoutSeconds < 0 {
		return errors.New("exchanges timeout_seconds must not be negative")
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("output.format must be 'text', 'json' or 'csv', got '%s'", c.Output.Format)
	}
	switch c.Output.Sort {
	case "client", "security", "value", "quantity":
	default:
		return fmt.Errorf("output.sort must be 'client', 'security', 'value' or 'quantity', got '%s'", c.Output.Sort)
	}
	return nil
}

// CacheTTL is the snapshot lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// LoadConfig reads path, applies defaults and validates. A missing file
// is not an error: the defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c := Default()
		c.applyEnv()
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.applyDefaults()
	c.applyEnv()
	c.Output.Format = strings.ToLower(c.Output.Format)
	c.Output.Sort = strings.ToLower(c.Output.Sort)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BULKDEALS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}
