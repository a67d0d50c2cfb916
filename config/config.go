package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/barreplay/backtest"
	"github.com/rustyeddy/barreplay/indicators"
	"github.com/rustyeddy/barreplay/risk"
	"github.com/rustyeddy/barreplay/strategy"
)

// DateLayout is the format of Data.From and Data.To.
const DateLayout = "2006-01-02"

// Config represents the complete backtest configuration
type Config struct {
	Data       DataConfig               `json:"data" yaml:"data"`
	Account    AccountConfig            `json:"account" yaml:"account"`
	Risk       risk.Params              `json:"risk" yaml:"risk"`
	Indicators indicators.Config        `json:"indicators" yaml:"indicators"`
	Strategy   strategy.Config          `json:"strategy" yaml:"strategy"`
	Predictor  strategy.PredictorConfig `json:"predictor" yaml:"predictor"`
	Backtest   BacktestConfig           `json:"backtest" yaml:"backtest"`
	Journal    JournalConfig            `json:"journal" yaml:"journal"`
	Log        LogConfig                `json:"log" yaml:"log"`
}

// DataConfig says where bars come from and which slice of them to replay.
type DataConfig struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Symbols []string `json:"symbols" yaml:"symbols"`
	From    string   `json:"from,omitempty" yaml:"from,omitempty"` // inclusive, YYYY-MM-DD
	To      string   `json:"to,omitempty" yaml:"to,omitempty"`     // exclusive
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// BacktestConfig contains replay parameters
type BacktestConfig struct {
	WindowSize        int   `json:"window_size" yaml:"window_size"`
	MinWindow         int   `json:"min_window,omitempty" yaml:"min_window,omitempty"`
	PendingExpiryBars int   `json:"pending_expiry_bars" yaml:"pending_expiry_bars"`
	MonteCarloRuns    int   `json:"monte_carlo_runs" yaml:"monte_carlo_runs"`
	MonteCarloWorkers int   `json:"monte_carlo_workers" yaml:"monte_carlo_workers"`
	Seed              int64 `json:"seed" yaml:"seed"`
}

// JournalConfig lists the report sinks. Empty paths are disabled.
type JournalConfig struct {
	DBPath          string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrdersFile      string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	TradesFile      string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile      string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	XLSXFile        string `json:"xlsx_file,omitempty" yaml:"xlsx_file,omitempty"`
	OrgReport       string `json:"org_report,omitempty" yaml:"org_report,omitempty"`
	MetricsTextfile string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`
}

// CSVEnabled reports whether any of the CSV files is set. All three are
// required together.
func (j JournalConfig) CSVEnabled() bool {
	return j.OrdersFile != "" || j.TradesFile != "" || j.EquityFile != ""
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON),
// applies BARREPLAY_* environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols is required")
	}
	for _, s := range c.Data.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("data.symbols contains an empty symbol")
		}
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	from, to, err := c.Data.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return fmt.Errorf("data.from must be before data.to")
	}
	if c.Account.InitialCash <= 0 {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(c.Predictor.Name), strategy.PredictorEMACrossADX) && c.Indicators.ADXPeriod == 0 {
		return fmt.Errorf("predictor %s needs indicators.adx_period", strategy.PredictorEMACrossADX)
	}
	if c.Strategy.SizeDivisor <= 0 {
		return fmt.Errorf("strategy.size_divisor must be positive")
	}
	if c.Strategy.DefaultVolatility < 0 {
		return fmt.Errorf("strategy.default_volatility must not be negative")
	}
	if c.Backtest.WindowSize <= 0 {
		return fmt.Errorf("backtest.window_size must be positive")
	}
	if c.Backtest.MinWindow < 0 || c.Backtest.MinWindow > c.Backtest.WindowSize {
		return fmt.Errorf("backtest.min_window must be between 0 and window_size")
	}
	if c.Backtest.PendingExpiryBars < 0 {
		return fmt.Errorf("backtest.pending_expiry_bars must not be negative")
	}
	if c.Backtest.MonteCarloRuns < 0 {
		return fmt.Errorf("backtest.monte_carlo_runs must not be negative")
	}
	if c.Backtest.MonteCarloRuns > 0 && c.Backtest.MonteCarloWorkers <= 0 {
		return fmt.Errorf("backtest.monte_carlo_workers must be positive")
	}
	if j := c.Journal; j.CSVEnabled() && (j.OrdersFile == "" || j.TradesFile == "" || j.EquityFile == "") {
		return fmt.Errorf("journal orders_file, trades_file and equity_file are required together")
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Range parses From and To. Unset bounds are zero times.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = time.Parse(DateLayout, d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = time.Parse(DateLayout, d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	return from, to, nil
}

// Options builds the replay options.
func (c *Config) Options() backtest.Options {
	return backtest.Options{
		InitialCash:       decimal.NewFromFloat(c.Account.InitialCash),
		Risk:              c.Risk,
		Strategy:          c.Strategy,
		WindowSize:        c.Backtest.WindowSize,
		MinWindow:         c.Backtest.MinWindow,
		PendingExpiryBars: c.Backtest.PendingExpiryBars,
		MonteCarloRuns:    c.Backtest.MonteCarloRuns,
		MonteCarloWorkers: c.Backtest.MonteCarloWorkers,
		Seed:              c.Backtest.Seed,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	opts := backtest.DefaultOptions()
	return &Config{
		Data: DataConfig{
			Dir:     "./data",
			Symbols: []string{"SPY"},
		},
		Account: AccountConfig{
			InitialCash: opts.InitialCash.InexactFloat64(),
		},
		Risk:       opts.Risk,
		Indicators: indicators.DefaultConfig(),
		Strategy:   opts.Strategy,
		Predictor: strategy.PredictorConfig{
			Name: strategy.PredictorEMACross,
		},
		Backtest: BacktestConfig{
			WindowSize:        opts.WindowSize,
			MonteCarloWorkers: opts.MonteCarloWorkers,
			Seed:              opts.Seed,
		},
		Journal: JournalConfig{
			DBPath: "./barreplay.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
