package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barreplay/backtest"
	"github.com/rustyeddy/barreplay/config"
	"github.com/rustyeddy/barreplay/indicators"
	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay bars for one or more symbols",
	Long: `Backtest replays <data-dir>/<SYMBOL>.parquet (or .csv) bar by bar.

Supported predictors:
  - ema-cross: fast/slow EMA spread outside a relative band
  - ema-cross-adx: ema-cross, held while ADX is below --min-adx
  - linear: YAML weight snapshot (--model)
  - hold: never trades (baseline)

Example:
  barreplay backtest -s SPY,QQQ --from 2020-01-01 --mc-runs 200 --xlsx report.xlsx`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btSymbols   []string
	btDataDir   string
	btFrom      string
	btTo        string
	btPredictor string
	btModel     string
	btMinADX    float64
	btMCRuns    int
	btSeed      int64
	btDBPath    string
	btCSVDir    string
	btXLSX      string
	btOrg       string
	btMetrics   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringSliceVarP(&btSymbols, "symbols", "s", nil, "symbols to replay (comma separated)")
	f.StringVarP(&btDataDir, "data", "d", "", "directory holding <SYMBOL>.parquet or <SYMBOL>.csv")
	f.StringVar(&btFrom, "from", "", "first day to replay (YYYY-MM-DD)")
	f.StringVar(&btTo, "to", "", "day to stop before (YYYY-MM-DD)")
	f.StringVarP(&btPredictor, "predictor", "p", "", "predictor name (ema-cross, ema-cross-adx, linear, hold)")
	f.StringVar(&btModel, "model", "", "linear: model snapshot path")
	f.Float64Var(&btMinADX, "min-adx", 0, "ema-cross-adx: minimum ADX to trade (default 20)")
	f.IntVar(&btMCRuns, "mc-runs", 0, "Monte Carlo resamples per symbol")
	f.Int64Var(&btSeed, "seed", 0, "Monte Carlo seed")
	f.StringVar(&btDBPath, "db", "", "SQLite trade log")
	f.StringVar(&btCSVDir, "csv-dir", "", "write orders.csv, trades.csv and equity.csv here")
	f.StringVar(&btXLSX, "xlsx", "", "Excel report path")
	f.StringVar(&btOrg, "org", "", "org-mode report path")
	f.StringVar(&btMetrics, "metrics", "", "Prometheus textfile path")
}

// applyBacktestFlags lays explicitly set flags over the loaded config.
func applyBacktestFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("symbols") {
		cfg.Data.Symbols = btSymbols
	}
	if changed("data") {
		cfg.Data.Dir = btDataDir
	}
	if changed("from") {
		cfg.Data.From = btFrom
	}
	if changed("to") {
		cfg.Data.To = btTo
	}
	if changed("predictor") {
		cfg.Predictor.Name = btPredictor
	}
	if changed("model") {
		cfg.Predictor.ModelPath = btModel
	}
	if changed("min-adx") {
		cfg.Predictor.MinADX = btMinADX
	}
	if changed("mc-runs") {
		cfg.Backtest.MonteCarloRuns = btMCRuns
	}
	if changed("seed") {
		cfg.Backtest.Seed = btSeed
	}
	if changed("db") {
		cfg.Journal.DBPath = btDBPath
	}
	if changed("csv-dir") {
		cfg.Journal.OrdersFile = filepath.Join(btCSVDir, "orders.csv")
		cfg.Journal.TradesFile = filepath.Join(btCSVDir, "trades.csv")
		cfg.Journal.EquityFile = filepath.Join(btCSVDir, "equity.csv")
	}
	if changed("xlsx") {
		cfg.Journal.XLSXFile = btXLSX
	}
	if changed("org") {
		cfg.Journal.OrgReport = btOrg
	}
	if changed("metrics") {
		cfg.Journal.MetricsTextfile = btMetrics
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	useConfigLogging(cfg)

	from, to, err := cfg.Data.Range()
	if err != nil {
		return err
	}

	predictor, err := strategy.NewPredictor(cfg.Predictor)
	if err != nil {
		return fmt.Errorf("predictor: %w", err)
	}
	features, err := indicators.NewProvider(cfg.Indicators)
	if err != nil {
		return fmt.Errorf("indicators: %w", err)
	}

	j, metrics, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}

	runner := &backtest.Runner{
		Predictor: predictor,
		Features:  features,
		Journal:   j,
		Logger:    logger,
		Options:   cfg.Options(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running backtest with predictor: %s\n", predictor.Name())
	fmt.Fprintf(out, "  Symbols: %s\n", strings.Join(cfg.Data.Symbols, ", "))
	fmt.Fprintf(out, "  Data: %s\n\n", cfg.Data.Dir)

	results, runErr := runner.Batch(ctx, cfg.Data.Symbols, loader(cfg.Data.Dir, from, to))

	// Close flushes the file sinks, so reports are complete only after it.
	if err := j.Close(); err != nil {
		logger.Warn("closing journal", "err", err)
	}
	if runErr != nil {
		return runErr
	}

	for _, sr := range results {
		if sr.Err == nil {
			backtest.PrintResult(out, sr.Result)
		}
	}
	if len(results) > 1 {
		backtest.PrintBatch(out, results)
	}

	if cfg.Journal.OrgReport != "" {
		if err := writeOrgReports(cfg.Journal.OrgReport, results); err != nil {
			return err
		}
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.Journal.MetricsTextfile); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	var failed []error
	for _, sr := range results {
		if sr.Err != nil {
			failed = append(failed, sr.Err)
		}
	}
	if len(failed) == len(results) && len(failed) > 0 {
		return fmt.Errorf("every symbol failed: %w", errors.Join(failed...))
	}
	return nil
}

func loader(dir string, from, to time.Time) backtest.Loader {
	return func(symbol string) ([]market.Bar, error) {
		path, err := market.FindFile(dir, symbol)
		if err != nil {
			return nil, err
		}
		return market.LoadFile(path, symbol, from, to)
	}
}

// openJournal fans out to every configured sink. Metrics is returned
// separately so the textfile can be written after the run.
func openJournal(jc config.JournalConfig) (journal.Journal, *journal.Metrics, error) {
	sinks := journal.Multi{journal.NewLogger(logger)}

	closeAll := func() { _ = sinks.Close() }

	if jc.DBPath != "" {
		db, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		sinks = append(sinks, db)
	}
	if jc.CSVEnabled() {
		c, err := journal.NewCSV(jc.OrdersFile, jc.TradesFile, jc.EquityFile)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open csv journal: %w", err)
		}
		sinks = append(sinks, c)
	}
	if jc.XLSXFile != "" {
		sinks = append(sinks, journal.NewXLSX(jc.XLSXFile))
	}

	var metrics *journal.Metrics
	if jc.MetricsTextfile != "" {
		metrics = journal.NewMetrics()
		sinks = append(sinks, metrics)
	}
	return sinks, metrics, nil
}

// writeOrgReports writes one report per successful symbol. With more than
// one symbol the symbol is inserted before the extension.
func writeOrgReports(path string, results []backtest.SymbolResult) error {
	ok := 0
	for _, sr := range results {
		if sr.Err == nil {
			ok++
		}
	}
	for _, sr := range results {
		if sr.Err != nil {
			continue
		}
		p := path
		if ok > 1 {
			ext := filepath.Ext(path)
			p = strings.TrimSuffix(path, ext) + "-" + sr.Symbol + ext
		}
		report := journal.OrgReport{
			Summary: sr.Result.Summary(),
			Trades:  sr.Result.TradeRecords(),
		}
		if mc := sr.Result.MonteCarlo; mc != nil {
			report.Notes = append(report.Notes, fmt.Sprintf(
				"Monte Carlo: %d runs, mean delta %.2f, min %.2f, max %.2f, std %.2f",
				mc.Runs, mc.MeanDelta, mc.MinDelta, mc.MaxDelta, mc.StdDelta))
		}
		if sr.Result.DataErrors > 0 {
			report.Notes = append(report.Notes, fmt.Sprintf("%d bars held on data errors", sr.Result.DataErrors))
		}
		if err := report.WriteFile(p); err != nil {
			return err
		}
		logger.Info("wrote org report", "symbol", sr.Symbol, "path", p)
	}
	return nil
}
