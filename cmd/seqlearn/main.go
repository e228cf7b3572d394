package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seqlearn",
		Short: "Benchmark greedy sequential learning on a labelled dataset",
		Long: `seqlearn replays greedy sequential learning on a dataset whose responses
are all known: a regression model picks the most promising hidden candidate,
its response is revealed, and the model is refit. Replicating this from many
random starts shows how quickly the greedy policy finds the best candidates.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			logger.SetDefault(logger.NewWithFormat(format, level, cmd.ErrOrStderr()))
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSimulateCmd(),
		newSummarizeCmd(),
		newCompareCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				printJSON(cmd, map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "seqlearn version %s\n", version)
			}
		},
	}
}
