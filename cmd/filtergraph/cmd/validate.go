package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gofiltergraph/filtergraph"
)

var validateCmd = &cobra.Command{
	Use:   "validate <job.yaml>",
	Short: "Check a job file and build its filter graph",
	Long: `Validate loads the job file and initializes its filter graph without
reading any input, so unknown filters, bad options and format mismatches
between the chain and the output are reported up front.`,
	Args: cobra.ExactArgs(1),
	RunE: validateJob,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("chain", "", "override the filter chain of the job")
}

func validateJob(cmd *cobra.Command, args []string) error {
	cfg, err := loadJob(cmd, args[0])
	if err != nil {
		return err
	}
	if err := filtergraph.NewRunner(cfg, newLogger(cmd), nil).Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d inputs, %d filters)\n", args[0], len(cfg.Inputs), len(cfg.Filters))
	return nil
}
