package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barscript/config"
	"github.com/rustyeddy/barscript/feed"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Inspect candle files",
}

var feedStatsCmd = &cobra.Command{
	Use:   "stats <path>",
	Short: "Report coverage and gaps of a candle file",
	Long: `Stats reads a candle file and reports missing bars at the given timeframe.
Gaps of a day or more starting Friday through Sunday (UTC) count as weekends.

Example:
  barscript feed stats data/eurusd_m1.csv.xz --tf M1`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedStats,
}

var (
	feedStatsTF   string
	feedStatsType string
)

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedStatsCmd)

	feedStatsCmd.Flags().StringVar(&feedStatsTF, "tf", "M1", "expected bar timeframe")
	feedStatsCmd.Flags().StringVar(&feedStatsType, "type", "", "feed type csv|parquet (guessed from the extension)")
}

func runFeedStats(cmd *cobra.Command, args []string) error {
	tf, err := feed.ParseTimeframe(feedStatsTF)
	if err != nil {
		return err
	}
	fc := config.FeedConfig{Path: args[0], Type: feedStatsType}
	if fc.Type == "" {
		fc.Type = guessFeedType(fc.Path)
	}
	f, err := openFeed(fc)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	s, err := feed.Scan(f, tf)
	if err != nil {
		return err
	}
	s.Print(cmd.OutOrStdout())
	return nil
}
