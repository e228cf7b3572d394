package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/seqlearn/internal/dataset"
	"github.com/GoSim-25-26J-441/seqlearn/internal/experiment"
	"github.com/GoSim-25-26J-441/seqlearn/internal/report"
	"github.com/GoSim-25-26J-441/seqlearn/internal/summary"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an experiment and write its history, summary and plot",
		Long: `Run every model of an experiment file against its dataset, summarize the
acquisition histories and write the outputs named in the report section.

Flags override the simulation block of the file; --n-iter 0 is accepted
and yields single-point curves.

Examples:
  seqlearn simulate --config config/experiment.yaml
  seqlearn simulate --config exp.yaml --seed 7 --n-repl 200 --out-dir runs/7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			outDir, _ := cmd.Flags().GetString("out-dir")
			noPlot, _ := cmd.Flags().GetBool("no-plot")
			parallel, _ := cmd.Flags().GetInt("parallel")

			exp, err := config.LoadExperiment(configPath)
			if err != nil {
				return err
			}
			if err := applySimulationFlags(cmd, exp); err != nil {
				return err
			}
			ds, err := dataset.FromConfig(exp.Dataset, "")
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res, err := experiment.NewRunner().
				WithLogger(logger.Default).
				WithParallelism(parallel).
				Run(ctx, exp, ds)
			if err != nil {
				return err
			}

			if err := writeExperimentOutputs(exp, res, outDir, noPlot); err != nil {
				return err
			}

			results := make([]seriesResult, len(res.Series))
			for i, s := range res.Series {
				results[i] = digest(s.Label, s.Summary)
			}
			comparisons := make([]*summary.Comparison, 0, len(res.Series)-1)
			primary := res.Primary()
			for _, s := range res.Series[1:] {
				c, err := summary.Compare(primary.Label, primary.Summary, s.Label, s.Summary)
				if err != nil {
					return err
				}
				comparisons = append(comparisons, c)
			}

			if jsonOut {
				printJSON(cmd, map[string]any{
					"candidates":  ds.Len(),
					"simulation":  exp.Simulation,
					"results":     results,
					"comparisons": comparisons,
					"elapsed_ms":  res.Elapsed.Milliseconds(),
				})
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d candidates, n_init=%d n_iter=%d n_repl=%d seed=%d\n\n",
				ds.Len(), exp.Simulation.NInit, exp.Simulation.NIter, exp.Simulation.NRepl, exp.Simulation.Seed)
			printTable(out, results, exp.Report.UpperQuantile)
			if len(comparisons) > 0 {
				fmt.Fprintln(out)
				for _, c := range comparisons {
					printComparison(out, c)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("config", "", "Experiment YAML file (required)")
	cmd.Flags().Int("n-init", 0, "Override simulation.n_init")
	cmd.Flags().Int("n-iter", 0, "Override simulation.n_iter")
	cmd.Flags().Int("n-repl", 0, "Override simulation.n_repl")
	cmd.Flags().Int64("seed", 0, "Override simulation.seed")
	cmd.Flags().String("out-dir", "", "Directory for relative report paths")
	cmd.Flags().Bool("no-plot", false, "Skip rendering the plot")
	cmd.Flags().Int("parallel", experiment.DefaultParallelism, "Models simulated concurrently")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// applySimulationFlags copies explicitly set flags over the file values.
func applySimulationFlags(cmd *cobra.Command, exp *config.Experiment) error {
	flags := cmd.Flags()
	if flags.Changed("n-init") {
		exp.Simulation.NInit, _ = flags.GetInt("n-init")
	}
	if flags.Changed("n-iter") {
		exp.Simulation.NIter, _ = flags.GetInt("n-iter")
	}
	if flags.Changed("n-repl") {
		exp.Simulation.NRepl, _ = flags.GetInt("n-repl")
	}
	if flags.Changed("seed") {
		exp.Simulation.Seed, _ = flags.GetInt64("seed")
	}
	s := exp.Simulation
	if s.NInit < 1 || s.NIter < 0 || s.NRepl < 1 {
		return fmt.Errorf("invalid simulation overrides: n_init=%d n_iter=%d n_repl=%d", s.NInit, s.NIter, s.NRepl)
	}
	return nil
}

func writeExperimentOutputs(exp *config.Experiment, res *experiment.Result, outDir string, noPlot bool) error {
	primary := res.Primary()
	if path := resolveOutput(outDir, exp.Report.HistoryPath); path != "" {
		err := report.WriteFile(path, func(w io.Writer) error { return report.WriteHistoryCSV(w, primary.History) })
		if err != nil {
			return err
		}
		logger.Info("history written", "path", path)
	}
	if path := resolveOutput(outDir, exp.Report.SummaryPath); path != "" {
		if err := writeSummaryFile(path, primary.Summary); err != nil {
			return err
		}
		logger.Info("summary written", "path", path)
	}
	if path := resolveOutput(outDir, exp.Report.PlotPath); path != "" && !noPlot {
		series := make([]report.Series, len(res.Series))
		for i, s := range res.Series {
			series[i] = report.Series{Label: s.Label, Summary: s.Summary}
		}
		if err := report.RenderPNG(path, series, report.PlotOptions{Title: exp.Report.Title, ShowUpper: true}); err != nil {
			return err
		}
		logger.Info("plot written", "path", path)
	}
	return nil
}
