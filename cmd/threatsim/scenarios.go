package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"threatsim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List built-in scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBOTS\tTICKS\tDESCRIPTION")
		builtIn := scenario.BuiltIn()
		for _, name := range scenario.Names() {
			sc := builtIn[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", name, len(sc.Bots)+sc.RandomBots, sc.Ticks, sc.Description)
		}
		return tw.Flush()
	},
}
