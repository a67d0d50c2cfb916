package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

// OrgReport renders one replay as an org-mode document.
type OrgReport struct {
	Summary Summary
	Trades  []TradeRecord
	Created time.Time
	Notes   []string
}

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"day":    func(t time.Time) string { return t.UTC().Format("2006-01-02") },
	"stamp":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"short": func(s string) string {
		if len(s) > 8 {
			return s[:8]
		}
		return s
	},
}

var orgTmpl = template.Must(template.New("report").Funcs(orgFuncs).Parse(orgTemplate))

// WinRate is wins over closed trades, 0 with no trades.
func (r *OrgReport) WinRate() float64 {
	if r.Summary.Trades == 0 {
		return 0
	}
	return float64(r.Summary.Wins) / float64(r.Summary.Trades)
}

// NetPL is the final minus initial balance.
func (r *OrgReport) NetPL() float64 {
	return r.Summary.FinalBalance - r.Summary.InitialBalance
}

func (r *OrgReport) Render(w io.Writer) error {
	return orgTmpl.Execute(w, r)
}

// WriteFile renders the report to path.
func (r *OrgReport) WriteFile(path string) error {
	buf := new(bytes.Buffer)
	if err := r.Render(buf); err != nil {
		return fmt.Errorf("render org report: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

const orgTemplate = `* BACKTEST: {{.Summary.Strategy}} {{.Summary.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .Summary.RunID}}{{.Summary.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Summary.Strategy}}
:SYMBOL:      {{.Summary.Symbol}}
:START_DATE:  {{day .Summary.Start}}
:END_DATE:    {{day .Summary.End}}
:BARS:        {{.Summary.Bars}}
:START_BAL:   {{printf "%.2f" .Summary.InitialBalance}}
:END_BAL:     {{printf "%.2f" .Summary.FinalBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .Summary.ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Summary.MaxDrawdown)}}
:SHARPE:      {{if .Summary.SharpeOK}}{{printf "%.4f" .Summary.Sharpe}}{{else}}N/A{{end}}
:TRADES:      {{.Summary.Trades}}
:WINS:        {{.Summary.Wins}}
:LOSSES:      {{.Summary.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Order Activity
| Orders | Fills | Rejections | Cancels |
|--------+-------+------------+---------|
| {{.Summary.Orders}} | {{.Summary.Fills}} | {{.Summary.Rejections}} | {{.Summary.Cancels}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .Summary.ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .Summary.MaxDrawdown)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
{{- if gt .Summary.MonteCarloRuns 0 }}
- Monte Carlo:      *{{.Summary.MonteCarloRuns}} runs, mean delta {{printf "%.2f" .Summary.MonteCarloMeanDelta}}*
{{- end }}

** Trades
{{- if .Trades }}
| ID | Side | Size | Entry | Exit | Closed | P/L | Reason |
|----+------+------+-------+------+--------+-----+--------|
{{- range .Trades }}
| {{short .TradeID}} | {{.Side}} | {{.Size}} | {{printf "%.4f" .EntryPrice}} | {{printf "%.4f" .ExitPrice}} | {{stamp .CloseTime}} | {{printf "%.2f" .RealizedPL}} | {{.Reason}} |
{{- end }}
{{- else }}
No closed trades.
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
