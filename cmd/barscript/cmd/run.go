package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/config"
	"github.com/rustyeddy/barscript/engine"
	"github.com/rustyeddy/barscript/internal/id"
	"github.com/rustyeddy/barscript/journal"
	"github.com/rustyeddy/barscript/script"
	"github.com/rustyeddy/barscript/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one script over a candle file",
	Long: `Run executes a single script bar by bar over a candle file.

Plot values are written to a CSV file. Strategies also write equity records
to CSV and/or SQLite and print a summary.

Examples:
  barscript run -s vstop -f data/btc_1h.csv.xz --plot vstop.csv
  barscript run -c session.yaml -i fast=5 -i slow=20 --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFlags   sessionFlags
	runPlot    string
	runEquity  string
	runDB      string
	runOrg     string
	runQuiet   bool
	runLogFreq int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runPlot, "plot", "", "plot CSV output path (overrides config)")
	runCmd.Flags().StringVar(&runEquity, "equity", "", "equity CSV output path (overrides config)")
	runCmd.Flags().StringVar(&runDB, "db", "", "equity SQLite database (overrides config)")
	runCmd.Flags().StringVar(&runOrg, "org", "", "write an Org summary of a strategy run to this path")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the strategy summary")
	runCmd.Flags().IntVar(&runLogFreq, "progress-every", 10_000, "log progress every N bars at info level (0 disables)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := runFlags.load()
	if err != nil {
		return err
	}
	overrideOutput(&cfg.Output)

	sc := cfg.Scripts[0]
	h, err := loadScript(sc, cfg)
	if err != nil {
		return err
	}

	runID := id.New()
	opts, err := engineOptions(cfg, runID)
	if err != nil {
		return err
	}
	opts.Progress = progressLogger(runLogFreq)

	sinks, err := openSinks(cfg, h, runID)
	if err != nil {
		return err
	}
	s, err := engine.NewSession(h, opts, sinks)
	if err != nil {
		closeSinks(sinks)
		return err
	}

	f, err := openFeed(cfg.Feed)
	if err != nil {
		closeSinks(sinks)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum := journal.Summary{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Script:         h.Name,
		Dataset:        cfg.Feed.Path,
		Inputs:         h.Inputs,
		InitialCapital: capital(h),
	}
	trades, err := drive(ctx, s, f, &sum)
	if err != nil {
		return err
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("close outputs: %w", err)
	}

	if h.Kind != script.Strategy {
		log.Info("run complete", zap.String("run_id", runID), zap.Int("bars", sum.Bars))
		return nil
	}
	sum.Summarize(trades)
	if !runQuiet {
		journal.PrintSummary(cmd.OutOrStdout(), sum)
	}
	if cfg.Output.OrgPath != "" {
		if err := sum.WriteOrg(cfg.Output.OrgPath); err != nil {
			return fmt.Errorf("write org summary: %w", err)
		}
	}
	return nil
}

// drive pulls every result of the session, collecting closed trades and
// the bar range into sum.
func drive(ctx context.Context, s *engine.Session, f engine.Feed, sum *journal.Summary) ([]strategy.Trade, error) {
	var trades []strategy.Trade
	for res, err := range s.All(ctx, f) {
		if err != nil {
			return nil, err
		}
		t := time.Unix(res.Bar().Timestamp, 0).UTC()
		if sum.Bars == 0 {
			sum.Start = t
		}
		sum.End = t
		sum.Bars++
		if sr, ok := res.(engine.StrategyResult); ok {
			trades = append(trades, sr.ClosedTrades...)
		}
	}
	return trades, nil
}

func overrideOutput(o *config.OutputConfig) {
	if runPlot != "" {
		o.PlotPath = runPlot
	}
	if runEquity != "" {
		o.EquityPath = runEquity
	}
	if runDB != "" {
		o.EquityDB = runDB
	}
	if runOrg != "" {
		o.OrgPath = runOrg
	}
}

// openSinks opens the configured outputs. Equity outputs only apply to
// strategies.
func openSinks(cfg *config.Config, h *script.Handle, runID string) (engine.Sinks, error) {
	var sinks engine.Sinks
	out := cfg.Output

	if out.PlotPath != "" {
		p, err := journal.NewPlotCSV(out.PlotPath, h.Precision)
		if err != nil {
			return sinks, err
		}
		sinks.Plot = p
	}
	if h.Kind != script.Strategy {
		return sinks, nil
	}

	var csvSink, dbSink journal.EquitySink
	if out.EquityPath != "" {
		e, err := journal.NewEquityCSV(out.EquityPath, cfg.Session.Currency)
		if err != nil {
			closeSinks(sinks)
			return engine.Sinks{}, err
		}
		csvSink = e
	}
	if out.EquityDB != "" {
		e, err := journal.NewEquitySQLite(out.EquityDB, journal.Run{
			RunID:    runID,
			Script:   h.Name,
			Currency: cfg.Session.Currency,
		})
		if err != nil {
			if csvSink != nil {
				_ = csvSink.Close()
			}
			closeSinks(sinks)
			return engine.Sinks{}, err
		}
		dbSink = e
	}
	sinks.Equity = journal.Tee(csvSink, dbSink)
	return sinks, nil
}

func closeSinks(s engine.Sinks) {
	if s.Plot != nil {
		_ = s.Plot.Close()
	}
	if s.Equity != nil {
		_ = s.Equity.Close()
	}
}

func capital(h *script.Handle) float64 {
	if h.Position == nil {
		return 0
	}
	return h.Position.InitialCapital
}

func progressLogger(every int) engine.ProgressFunc {
	n := 0
	return func(t time.Time) {
		if t.Equal(engine.ProgressDone) {
			log.Info("feed exhausted", zap.Int("bars", n))
			return
		}
		n++
		if every > 0 && n%every == 0 {
			log.Info("progress", zap.Int("bars", n), zap.Time("bar_time", t))
		}
	}
}
