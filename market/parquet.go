package market

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the Parquet schema for bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// LoadParquet reads bars for symbol from a Parquet file. Rows carrying a
// different non-empty symbol are skipped.
func LoadParquet(path, symbol string, from, to time.Time) ([]Bar, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		if r.Symbol != "" && symbol != "" && !strings.EqualFold(r.Symbol, symbol) {
			continue
		}
		bars = append(bars, Bar{
			Symbol: symbol,
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	SortByTime(bars)

	bars = Between(bars, from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoBars)
	}
	return bars, nil
}

// WriteParquet writes bars to path, creating parent directories.
func WriteParquet(path string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:    b.Symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return parquet.WriteFile(path, records)
}

// LoadFile picks the reader by extension (.csv or .parquet).
func LoadFile(path, symbol string, from, to time.Time) ([]Bar, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, symbol, from, to)
	case ".parquet", ".pq":
		return LoadParquet(path, symbol, from, to)
	default:
		return nil, fmt.Errorf("unsupported bar file %q (want .csv or .parquet)", path)
	}
}

// FindFile locates <dir>/<SYMBOL>.parquet or <dir>/<SYMBOL>.csv.
func FindFile(dir, symbol string) (string, error) {
	for _, ext := range []string{".parquet", ".csv"} {
		p := filepath.Join(dir, symbol+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no bar file for %s in %s", symbol, dir)
}
