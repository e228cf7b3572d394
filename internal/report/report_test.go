package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

func sampleHistory() *models.History {
	return &models.History{
		NInit: 2,
		NIter: 3,
		Seed:  7,
		Indices: [][]int{
			{4, 1, 0, 2, 3},
			{0, 3, 4, 1, 2},
		},
	}
}

func sampleSummary() *models.Summary {
	return &models.Summary{
		Steps:         []int{0, 1, 2},
		Median:        []float64{1.5, 2, 3},
		Upper:         []float64{1.9, 2.8, 3},
		Mean:          []float64{1.5, 2.1, 3},
		Optimum:       3,
		UpperQuantile: 0.9,
		Replications:  2,
	}
}

func TestHistoryCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, sampleHistory()); err != nil {
		t.Fatalf("WriteHistoryCSV error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "init_0,init_1,step_1,step_2,step_3" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	got, err := ReadHistoryCSV(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("ReadHistoryCSV error: %v", err)
	}
	want := sampleHistory()
	if got.NInit != want.NInit || got.NIter != want.NIter {
		t.Fatalf("expected shape %d+%d, got %d+%d", want.NInit, want.NIter, got.NInit, got.NIter)
	}
	for r := range want.Indices {
		for c := range want.Indices[r] {
			if got.Indices[r][c] != want.Indices[r][c] {
				t.Fatalf("entry [%d][%d]: expected %d, got %d", r, c, want.Indices[r][c], got.Indices[r][c])
			}
		}
	}
}

func TestReadHistoryCSVErrors(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"no init":         "step_1,step_2\n1,2\n",
		"not index":       "init_0,step_1\n1,x\n",
		"init after step": "init_0,step_1,init_1\n0,1,2\n",
		"unknown column":  "init_0,init_1,pick\n0,1,2\n",
	}
	for name, in := range cases {
		if _, err := ReadHistoryCSV(strings.NewReader(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteSummaryJSON error: %v", err)
	}
	var decoded models.Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Optimum != 3 || len(decoded.Median) != 3 || decoded.Upper[1] != 2.8 {
		t.Fatalf("unexpected decoded summary %+v", decoded)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteSummaryCSV error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "step,median,p90,mean,optimum" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "1,2,2.8,2.1,3" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestWriteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.json")
	err := WriteFile(path, func(w io.Writer) error { return WriteSummaryJSON(w, sampleSummary()) })
	if err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty file at %s (err=%v)", path, err)
	}
}

func TestRenderPNG(t *testing.T) {
	other := sampleSummary()
	other.Median = []float64{1, 1.5, 2.5}
	series := []Series{
		{Label: "OLS", Summary: sampleSummary()},
		{Label: "ridge", Summary: other},
	}
	path := filepath.Join(t.TempDir(), "out", "history.png")
	if err := RenderPNG(path, series, PlotOptions{Title: "test", ShowUpper: true}); err != nil {
		t.Fatalf("RenderPNG error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read plot: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestNewPlotRejectsMismatchedSeries(t *testing.T) {
	if _, err := NewPlot(nil, PlotOptions{}); err == nil {
		t.Fatalf("expected error for no series")
	}
	other := sampleSummary()
	other.Optimum = 10
	series := []Series{{Label: "a", Summary: sampleSummary()}, {Label: "b", Summary: other}}
	if _, err := NewPlot(series, PlotOptions{}); err == nil {
		t.Fatalf("expected error for series from different datasets")
	}
	if _, err := NewPlot([]Series{{Label: "nil"}}, PlotOptions{}); err == nil {
		t.Fatalf("expected error for series without summary")
	}
}
