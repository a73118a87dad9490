package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barscript/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query stored strategy runs",
	Long: `Query runs and equity records from an equity SQLite database.

Subcommands:
  runs    - List stored runs
  equity  - Print the equity records of one run

Examples:
  barscript journal runs --db runs.sqlite
  barscript journal equity 01HV6Z... --db runs.sqlite`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print the equity records of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./barscript.sqlite", "path to equity SQLite DB")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	r, err := journal.OpenReader(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer r.Close()

	runs, err := r.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSCRIPT\tCURRENCY\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", run.RunID, run.Script, run.Currency, run.Created.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	r, err := journal.OpenReader(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer r.Close()

	run, err := r.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	recs, err := r.ListEquity(cmd.Context(), run.RunID)
	if err != nil {
		return fmt.Errorf("list equity: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Trade #\tType\tSignal\tDate/Time\tPrice %[1]s\tContracts\tProfit %[1]s\tProfit %%\tCum. profit %[1]s\t\n", run.Currency)
	for _, e := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%g\t%.2f\t%s\t%.2f\t\n",
			e.TradeNum, e.Type, e.Signal, e.Time.Format(journal.DateTimeFormat),
			e.Price, e.Contracts, e.Profit, journal.FormatPercent(e.ProfitPercent), e.CumProfit)
	}
	return tw.Flush()
}
