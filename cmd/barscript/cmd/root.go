// Package cmd implements the barscript command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/config"
	"github.com/rustyeddy/barscript/internal/logging"

	// bundled scripts
	_ "github.com/rustyeddy/barscript/scripts"
)

var (
	logLevel  string
	logFormat string

	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "barscript",
	Short: "Run bar-by-bar chart scripts over candle data",
	Long: `Barscript executes indicator and strategy scripts one bar at a time over
historical candles and writes their plots and strategy equity to CSV or SQLite.

Complete documentation is available at https://github.com/rustyeddy/barscript`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if v := os.Getenv(config.EnvLogLevel); v != "" && !cmd.Flags().Changed("log-level") {
			logLevel = v
		}
		l, err := logging.New(logLevel, logFormat)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console|json")
}
