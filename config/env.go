package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BARREPLAY_"

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from BARREPLAY_* variables:
//
//	BARREPLAY_DATA_DIR, BARREPLAY_SYMBOLS (comma separated),
//	BARREPLAY_FROM, BARREPLAY_TO, BARREPLAY_INITIAL_CASH,
//	BARREPLAY_PREDICTOR, BARREPLAY_MODEL_PATH,
//	BARREPLAY_MC_RUNS, BARREPLAY_MC_WORKERS, BARREPLAY_SEED,
//	BARREPLAY_DB_PATH, BARREPLAY_METRICS_TEXTFILE,
//	BARREPLAY_LOG_LEVEL, BARREPLAY_LOG_FORMAT
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	str("DATA_DIR", &c.Data.Dir)
	str("FROM", &c.Data.From)
	str("TO", &c.Data.To)
	str("PREDICTOR", &c.Predictor.Name)
	str("MODEL_PATH", &c.Predictor.ModelPath)
	str("DB_PATH", &c.Journal.DBPath)
	str("METRICS_TEXTFILE", &c.Journal.MetricsTextfile)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("SYMBOLS"); ok {
		c.Data.Symbols = splitSymbols(v)
	}

	if v, ok := lookup("INITIAL_CASH"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sINITIAL_CASH: %w", EnvPrefix, err)
		}
		c.Account.InitialCash = f
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MC_RUNS", &c.Backtest.MonteCarloRuns},
		{"MC_WORKERS", &c.Backtest.MonteCarloWorkers},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = n
	}

	if v, ok := lookup("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Backtest.Seed = n
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
