package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/engine"
	"github.com/rustyeddy/barscript/internal/id"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Run several scripts over one candle file and print every bar",
	Long: `Chart runs every configured script on the same bars, one bar at a time,
and prints one line per script per bar.

Examples:
  barscript chart -c session.yaml --limit 20
  barscript chart -s dmi -f data/eurusd_h1.parquet --live`,
	Args: cobra.NoArgs,
	RunE: runChart,
}

var (
	chartFlags sessionFlags
	chartLimit int
	chartLive  bool
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartFlags.register(chartCmd)
	chartCmd.Flags().IntVarP(&chartLimit, "limit", "n", 0, "stop after N bars (0 runs the whole feed)")
	chartCmd.Flags().BoolVar(&chartLive, "live", false, "treat every bar as the last one seen")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := chartFlags.load()
	if err != nil {
		return err
	}

	runID := id.New()
	opts, err := engineOptions(cfg, runID)
	if err != nil {
		return err
	}
	if chartLive {
		opts.LastBarIndex = -1
	}

	chart := engine.NewChart(opts)
	for _, sc := range cfg.Scripts {
		h, err := loadScript(sc, cfg)
		if err != nil {
			return err
		}
		if err := chart.Add(sc.ID, h); err != nil {
			return err
		}
	}

	f, err := openFeed(cfg.Feed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ids := chart.IDs()
	bars := 0
	for frame, err := range chart.All(ctx, f) {
		if err != nil {
			return err
		}
		printFrame(cmd.OutOrStdout(), ids, frame)
		bars++
		if chartLimit > 0 && bars >= chartLimit {
			break
		}
	}
	log.Info("chart complete", zap.String("run_id", runID), zap.Int("bars", bars))
	return nil
}

func printFrame(w io.Writer, ids []string, frame engine.Frame) {
	for _, sid := range ids {
		res, ok := frame[sid]
		if !ok {
			continue
		}
		plots := res.PlotValues()
		labels := make([]string, 0, len(plots))
		for k := range plots {
			labels = append(labels, k)
		}
		sort.Strings(labels)

		var b strings.Builder
		for _, k := range labels {
			fmt.Fprintf(&b, " %s=%v", k, plots[k])
		}
		ts := time.Unix(res.Bar().Timestamp, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s %s%s\n", ts, sid, b.String())
	}
}
