package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barscript/script"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "List the registered scripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := script.Default()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tTITLE")
		for _, name := range reg.List() {
			u, _ := reg.Get(name)
			kind, title := script.KindUnknown, name
			if u.Meta != nil {
				kind = u.Meta.Kind
				if u.Meta.Title != "" {
					title = u.Meta.Title
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, kind, title)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}
