package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/barreplay/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite trade log",
	Long: `Query runs recorded by "barreplay backtest --db".

Subcommands:
  report - Org-mode report for a run
  orders - Order activity of a run
  day    - Trades closed on a specific day

Examples:
  barreplay journal report 01HX...
  barreplay journal day 2024-01-15`,
}

var journalReportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the org-mode report of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalReport,
}

var journalOrdersCmd = &cobra.Command{
	Use:   "orders <run-id>",
	Short: "List order activity of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrders,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalReportCmd)
	journalCmd.AddCommand(journalOrdersCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "./barreplay.db", "path to SQLite journal DB")
}

func runJournalReport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	sum, err := j.GetSummary(runID)
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}
	trades, err := j.ListTrades(runID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	r := journal.OrgReport{Summary: sum, Trades: trades}
	return r.Render(cmd.OutOrStdout())
}

func runJournalOrders(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListOrders(args[0])
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Order", "Symbol", "Action", "Side", "Price", "Size", "Reason"})
	for _, o := range recs {
		t.AppendRow(table.Row{
			o.Time.UTC().Format("2006-01-02"), o.OrderID, o.Symbol, o.Action, o.Side,
			fmt.Sprintf("%.4f", o.Price), o.Size, o.Reason,
		})
	}
	t.Render()
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Trade", "Symbol", "Side", "Size", "Entry", "Exit", "P/L", "Reason"})
	var net float64
	for _, tr := range recs {
		net += tr.RealizedPL
		t.AppendRow(table.Row{
			tr.TradeID, tr.Symbol, tr.Side, tr.Size,
			fmt.Sprintf("%.4f", tr.EntryPrice), fmt.Sprintf("%.4f", tr.ExitPrice),
			fmt.Sprintf("%.2f", tr.RealizedPL), tr.Reason,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Net", fmt.Sprintf("%.2f", net), ""})
	t.Render()
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
