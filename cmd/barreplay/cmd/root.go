package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barreplay/config"
	"github.com/rustyeddy/barreplay/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "barreplay",
	Short: "Bar-by-bar strategy backtester",
	Long: `Barreplay replays daily OHLCV bars through a predictor, a risk-managed
strategy and a simulated order book.

It provides tools for:
  - Backtesting one or many symbols from CSV or Parquet bars
  - Monte Carlo resampling of a bar series
  - Trade logs in SQLite, CSV and Excel, org-mode reports
  - Prometheus textfile metrics
  - Converting bar files between CSV and Parquet`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		logger = newLogger()
		return nil
	},
}

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	logger *slog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with BARREPLAY_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

// loadConfig reads --config, or starts from defaults plus the environment.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger honors the flags first, then BARREPLAY_LOG_*.
func newLogger() *slog.Logger {
	level, format := logLevel, logFormat
	if level == "" {
		level = os.Getenv(config.EnvPrefix + "LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv(config.EnvPrefix + "LOG_FORMAT")
	}
	return logging.New(os.Stderr, level, format)
}

// useConfigLogging rebuilds the logger from cfg.Log, with the flags on top.
func useConfigLogging(cfg *config.Config) {
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}
