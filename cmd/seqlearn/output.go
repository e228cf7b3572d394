package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/seqlearn/internal/acquisition"
	"github.com/GoSim-25-26J-441/seqlearn/internal/report"
	"github.com/GoSim-25-26J-441/seqlearn/internal/summary"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// seriesResult is the printed digest of one summarized history
type seriesResult struct {
	Label          string          `json:"label"`
	FinalMedian    float64         `json:"final_median"`
	FinalUpper     float64         `json:"final_upper"`
	FinalMean      float64         `json:"final_mean"`
	Optimum        float64         `json:"optimum"`
	StepsToOptimum int             `json:"steps_to_optimum"`
	Summary        *models.Summary `json:"summary,omitempty"`
}

func digest(label string, s *models.Summary) seriesResult {
	last := len(s.Median) - 1
	return seriesResult{
		Label:          label,
		FinalMedian:    s.Median[last],
		FinalUpper:     s.Upper[last],
		FinalMean:      s.Mean[last],
		Optimum:        s.Optimum,
		StepsToOptimum: s.FirstStepReaching(s.Optimum),
		Summary:        s,
	}
}

func printJSON(cmd *cobra.Command, v any) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to encode output: %v\n", err)
	}
}

func printTable(w io.Writer, results []seriesResult, quantile float64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MODEL\tFINAL MEDIAN\tFINAL P%g\tFINAL MEAN\tOPTIMUM\tSTEPS TO OPTIMUM\n", quantile*100)
	for _, r := range results {
		steps := "never"
		if r.StepsToOptimum >= 0 {
			steps = fmt.Sprint(r.StepsToOptimum)
		}
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%s\n",
			r.Label, r.FinalMedian, r.FinalUpper, r.FinalMean, r.Optimum, steps)
	}
	tw.Flush()
}

func printComparison(w io.Writer, c *summary.Comparison) {
	last := len(c.MedianDiff) - 1
	better := c.Better
	if better == "" {
		better = "tie"
	}
	fmt.Fprintf(w, "%s vs %s: final median difference %+.4g, better: %s\n",
		c.LabelA, c.LabelB, c.MedianDiff[last], better)
}

// writeSummaryFile writes CSV for a .csv path and JSON otherwise
func writeSummaryFile(path string, s *models.Summary) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return report.WriteFile(path, func(w io.Writer) error { return report.WriteSummaryCSV(w, s) })
	}
	return report.WriteFile(path, func(w io.Writer) error { return report.WriteSummaryJSON(w, s) })
}

// resolveOutput places relative output paths under dir
func resolveOutput(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func readHistoryFile(path string) (*models.History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	defer f.Close()
	h, err := report.ReadHistoryCSV(f)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", path, err)
	}
	return h, nil
}

// checkHistory rejects a stored history that could not come from a
// simulation over n candidates.
func checkHistory(path string, h *models.History, n int) error {
	if err := h.Validate(n); err != nil {
		return fmt.Errorf("history %s: %w: %v", path, acquisition.ErrInvalidConfiguration, err)
	}
	return nil
}
