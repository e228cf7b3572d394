package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/seqlearn/internal/dataset"
	"github.com/GoSim-25-26J-441/seqlearn/internal/report"
	"github.com/GoSim-25-26J-441/seqlearn/internal/summary"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare stored histories of the same dataset",
		Long: `Summarize two or more histories and contrast each with the first.

Histories are given as label=path pairs and are drawn on one figure when
--plot is set.

Example:
  seqlearn compare --dataset d.csv --response y \
    --history OLS=out/ols.csv --history ridge=out/ridge.csv --plot out/compare.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetPath, _ := cmd.Flags().GetString("dataset")
			response, _ := cmd.Flags().GetString("response")
			pairs, _ := cmd.Flags().GetStringArray("history")
			quantile, _ := cmd.Flags().GetFloat64("quantile")
			plotPath, _ := cmd.Flags().GetString("plot")
			title, _ := cmd.Flags().GetString("title")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if len(pairs) < 2 {
				return fmt.Errorf("at least two --history label=path pairs are required")
			}
			ds, err := dataset.LoadCSVFile(datasetPath, response, nil)
			if err != nil {
				return err
			}

			labels := make([]string, len(pairs))
			summaries := make([]*models.Summary, len(pairs))
			for i, pair := range pairs {
				label, path, ok := strings.Cut(pair, "=")
				if !ok || label == "" || path == "" {
					return fmt.Errorf("invalid --history %q, expected label=path", pair)
				}
				h, err := readHistoryFile(path)
				if err != nil {
					return err
				}
				if err := checkHistory(path, h, ds.Len()); err != nil {
					return err
				}
				s, err := summary.SummarizeWithQuantile(h, ds.Responses, h.NInit, quantile)
				if err != nil {
					return fmt.Errorf("%s: %w", label, err)
				}
				labels[i], summaries[i] = label, s
			}

			results := make([]seriesResult, len(pairs))
			comparisons := make([]*summary.Comparison, 0, len(pairs)-1)
			for i := range pairs {
				results[i] = digest(labels[i], summaries[i])
				if i == 0 {
					continue
				}
				c, err := summary.Compare(labels[0], summaries[0], labels[i], summaries[i])
				if err != nil {
					return err
				}
				comparisons = append(comparisons, c)
			}

			if plotPath != "" {
				series := make([]report.Series, len(pairs))
				for i := range pairs {
					series[i] = report.Series{Label: labels[i], Summary: summaries[i]}
				}
				if err := report.RenderPNG(plotPath, series, report.PlotOptions{Title: title, ShowUpper: true}); err != nil {
					return err
				}
			}

			if jsonOut {
				printJSON(cmd, map[string]any{"results": results, "comparisons": comparisons})
				return nil
			}
			out := cmd.OutOrStdout()
			printTable(out, results, quantile)
			fmt.Fprintln(out)
			for _, c := range comparisons {
				printComparison(out, c)
			}
			return nil
		},
	}

	cmd.Flags().String("dataset", "", "Dataset CSV (required)")
	cmd.Flags().String("response", "", "Response column of the dataset (required)")
	cmd.Flags().StringArray("history", nil, "label=path of a history CSV; repeat for each history")
	cmd.Flags().Float64("quantile", summary.DefaultUpperQuantile, "Upper quantile of the spread curve")
	cmd.Flags().String("plot", "", "Render all curves to this image file")
	cmd.Flags().String("title", "", "Plot title")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("response")

	return cmd
}
