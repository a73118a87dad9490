package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/rustyeddy/barscript/strategy"
)

// Summary describes a finished strategy run.
type Summary struct {
	RunID   string
	Created time.Time
	Script  string
	Dataset string
	Inputs  map[string]any

	Start time.Time
	End   time.Time
	Bars  int

	Trades int
	Wins   int
	Losses int

	InitialCapital float64
	NetProfit      float64
	ReturnPct      float64
	WinRate        float64
	ProfitFactor   float64
	MaxDDPct       float64
}

// Summarize fills the trade statistics of s from closed trades.
func (s *Summary) Summarize(trades []strategy.Trade) {
	var grossProfit, grossLoss float64
	s.Trades = len(trades)
	s.Wins, s.Losses = 0, 0
	s.NetProfit, s.MaxDDPct = 0, 0
	for _, t := range trades {
		switch {
		case t.Profit > 0:
			s.Wins++
			grossProfit += t.Profit
		case t.Profit < 0:
			s.Losses++
			grossLoss -= t.Profit
		}
		s.NetProfit += t.Profit
		if t.MaxDrawdownPercent > s.MaxDDPct {
			s.MaxDDPct = t.MaxDrawdownPercent
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	}
	if s.InitialCapital > 0 {
		s.ReturnPct = s.NetProfit / s.InitialCapital * 100
	}
}

func (s Summary) inputLines() []string {
	keys := make([]string, 0, len(s.Inputs))
	for k := range s.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s = %v", k, s.Inputs[k]))
	}
	return out
}

var summaryOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// WriteOrg renders the summary as an Org document at path.
func (s Summary) WriteOrg(path string) error {
	t, err := template.New("summary").Funcs(summaryOrgFuncs).Parse(SummaryOrgTemplate)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	err = t.Execute(buf, struct {
		Summary
		InputLines []string
	}{s, s.inputLines()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

const SummaryOrgTemplate = `
* RUN: {{.Script}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:SCRIPT:      {{.Script}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:CAPITAL:     {{printf "%.2f" .InitialCapital}}
:NET_PROFIT:  {{printf "%.2f" .NetProfit}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Inputs
{{- range .InputLines }}
- {{.}}
{{- else }}
- (defaults)
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
`

// PrintSummary writes a plain text report of s to w.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Run Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", s.RunID)
	fmt.Fprintf(w, "Script:        %s\n", s.Script)
	if s.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", s.Dataset)
	}
	fmt.Fprintf(w, "Bars:          %d\n", s.Bars)
	if !s.Start.IsZero() {
		fmt.Fprintf(w, "Period:        %s .. %s\n", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Capital:       %.2f\n", s.InitialCapital)
	fmt.Fprintf(w, "Net Profit:    %.2f\n", s.NetProfit)
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)
	if s.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	}
	if s.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDDPct)
	}
}
