package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gofiltergraph/filtergraph/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the available filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tINPUTS\tDESCRIPTION")
		for _, def := range filter.Default.List() {
			inputs := "any"
			if def.Inputs > 0 {
				inputs = strconv.Itoa(def.Inputs)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, inputs, def.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}
