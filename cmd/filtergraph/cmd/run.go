package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gofiltergraph/filtergraph"
)

var runCmd = &cobra.Command{
	Use:   "run <job.yaml>",
	Short: "Run a filter job",
	Long: `Run reads every input of the job until end of file, runs the samples
through the filter chain and writes the output file.

Without filters a single input is copied to the output, cut into frames of
output.frame_samples when set.`,
	Args: cobra.ExactArgs(1),
	RunE: runJob,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("output", "o", "", "override the output path of the job")
	runCmd.Flags().String("chain", "", "override the filter chain of the job")
}

func runJob(cmd *cobra.Command, args []string) error {
	cfg, err := loadJob(cmd, args[0])
	if err != nil {
		return err
	}
	log := newLogger(cmd).With("job", args[0])

	stats, err := filtergraph.NewRunner(cfg, log, nil).RunFiles(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d samples in, %d samples out, %d frames written in %s\n",
		cfg.Output.Path, stats.SamplesIn, stats.SamplesOut, stats.FramesOut, stats.Duration.Round(time.Millisecond))
	return nil
}

// loadJob reads the job file and applies the command line overrides.
func loadJob(cmd *cobra.Command, path string) (filtergraph.Config, error) {
	cfg, err := filtergraph.LoadConfig(path)
	if err != nil {
		return filtergraph.Config{}, err
	}
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.Output.Path = f.Value.String()
	}
	if f := cmd.Flags().Lookup("chain"); f != nil && f.Changed {
		if cfg, err = cfg.WithChain(f.Value.String()); err != nil {
			return filtergraph.Config{}, err
		}
	}
	return cfg, nil
}
