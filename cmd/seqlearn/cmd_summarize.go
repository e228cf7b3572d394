package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/seqlearn/internal/dataset"
	"github.com/GoSim-25-26J-441/seqlearn/internal/report"
	"github.com/GoSim-25-26J-441/seqlearn/internal/summary"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a stored acquisition history",
		Long: `Recompute the best-so-far curves of a history written by "simulate".

The dataset must be the one the history was produced from; its responses
give each picked index its value.

Examples:
  seqlearn summarize --history out/history.csv --dataset data/candidates.csv --response response
  seqlearn summarize --history h.csv --dataset d.csv --response y --quantile 0.75 --out s.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			historyPath, _ := cmd.Flags().GetString("history")
			datasetPath, _ := cmd.Flags().GetString("dataset")
			response, _ := cmd.Flags().GetString("response")
			features, _ := cmd.Flags().GetStringSlice("features")
			nInit, _ := cmd.Flags().GetInt("n-init")
			quantile, _ := cmd.Flags().GetFloat64("quantile")
			outPath, _ := cmd.Flags().GetString("out")
			plotPath, _ := cmd.Flags().GetString("plot")
			label, _ := cmd.Flags().GetString("label")
			jsonOut, _ := cmd.Flags().GetBool("json")

			history, err := readHistoryFile(historyPath)
			if err != nil {
				return err
			}
			ds, err := dataset.LoadCSVFile(datasetPath, response, features)
			if err != nil {
				return err
			}
			if err := checkHistory(historyPath, history, ds.Len()); err != nil {
				return err
			}
			if !cmd.Flags().Changed("n-init") {
				nInit = history.NInit
			}

			s, err := summary.SummarizeWithQuantile(history, ds.Responses, nInit, quantile)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := writeSummaryFile(outPath, s); err != nil {
					return err
				}
			}
			if plotPath != "" {
				series := []report.Series{{Label: label, Summary: s}}
				if err := report.RenderPNG(plotPath, series, report.PlotOptions{Title: historyPath, ShowUpper: true}); err != nil {
					return err
				}
			}

			result := digest(label, s)
			if jsonOut {
				printJSON(cmd, result)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d replications, %d steps\n\n", s.Replications, len(s.Steps)-1)
			printTable(cmd.OutOrStdout(), []seriesResult{result}, quantile)
			return nil
		},
	}

	cmd.Flags().String("history", "", "History CSV (required)")
	cmd.Flags().String("dataset", "", "Dataset CSV (required)")
	cmd.Flags().String("response", "", "Response column of the dataset (required)")
	cmd.Flags().StringSlice("features", nil, "Feature columns; only used to validate the table")
	cmd.Flags().Int("n-init", 0, "Initial sample size (default: from the history header)")
	cmd.Flags().Float64("quantile", summary.DefaultUpperQuantile, "Upper quantile of the spread curve")
	cmd.Flags().String("out", "", "Write the summary here (.csv for CSV, JSON otherwise)")
	cmd.Flags().String("plot", "", "Render the curves to this image file")
	cmd.Flags().String("label", "history", "Series label")
	_ = cmd.MarkFlagRequired("history")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("response")

	return cmd
}
