package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barreplay/market"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a bar file between CSV and Parquet",
	Long: `Convert reads bars from a .csv or .parquet file and writes them in the
format named by the output extension.

Example:
  barreplay convert data/SPY.csv data/SPY.parquet`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var convertSymbol string

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertSymbol, "symbol", "", "symbol to stamp on the bars (default: input file name)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	symbol := convertSymbol
	if symbol == "" {
		symbol = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}

	bars, err := market.LoadFile(in, symbol, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".parquet", ".pq":
		err = market.WriteParquet(out, bars)
	case ".csv":
		err = writeCSVFile(out, bars)
	default:
		return fmt.Errorf("unsupported output %q (want .csv or .parquet)", out)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d %s bars to %s\n", len(bars), symbol, out)
	return nil
}

func writeCSVFile(path string, bars []market.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := market.WriteCSV(f, bars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
