package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/seqlearn/internal/acquisition"
)

const testCSV = `x1,x2,y
0,0,0.0
1,1,0.9
2,4,1.6
3,9,2.1
4,16,2.4
5,25,2.5
6,36,2.4
7,49,2.1
8,64,1.6
9,81,0.9
10,100,0.0
11,121,-1.1
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func experimentFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "data.csv", testCSV)
	cfg := writeFixture(t, dir, "exp.yaml", `
dataset:
  path: data.csv
  response: y
simulation:
  n_init: 3
  n_iter: 4
  n_repl: 6
  seed: 9
model:
  name: linear
  label: OLS
compare:
  - name: knn
    k: 2
report:
  history_path: out/history.csv
  summary_path: out/summary.json
  plot_path: out/plot.png
`)
	return dir, cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("expected version in %q", out)
	}
}

func TestSimulateWritesOutputs(t *testing.T) {
	dir, cfg := experimentFixture(t)
	outDir := filepath.Join(dir, "results")

	out, err := execute(t, "simulate", "--config", cfg, "--out-dir", outDir)
	if err != nil {
		t.Fatalf("simulate error: %v", err)
	}
	for _, want := range []string{"12 candidates", "OLS", "knn", "OLS vs knn"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	for _, name := range []string{"history.csv", "summary.json", "plot.png"} {
		if _, err := os.Stat(filepath.Join(outDir, "out", name)); err != nil {
			t.Fatalf("expected %s to be written: %v", name, err)
		}
	}

	// The written history re-summarizes to the same curves.
	historyPath := filepath.Join(outDir, "out", "history.csv")
	out, err = execute(t, "--json", "summarize",
		"--history", historyPath,
		"--dataset", filepath.Join(dir, "data.csv"),
		"--response", "y",
		"--out", filepath.Join(outDir, "resummary.csv"))
	if err != nil {
		t.Fatalf("summarize error: %v", err)
	}
	var result seriesResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid summarize JSON: %v", err)
	}
	if result.Optimum != 2.5 || len(result.Summary.Median) != 5 {
		t.Fatalf("unexpected summarize result %+v", result)
	}

	stored, err := os.ReadFile(filepath.Join(outDir, "out", "summary.json"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var original struct {
		Median []float64 `json:"median"`
	}
	if err := json.Unmarshal(stored, &original); err != nil {
		t.Fatalf("invalid summary JSON: %v", err)
	}
	for i := range original.Median {
		if original.Median[i] != result.Summary.Median[i] {
			t.Fatalf("step %d: stored median %v, recomputed %v", i, original.Median[i], result.Summary.Median[i])
		}
	}
}

func TestSimulateFlagOverrides(t *testing.T) {
	_, cfg := experimentFixture(t)

	out, err := execute(t, "--json", "simulate", "--config", cfg, "--n-iter", "0", "--n-repl", "2", "--no-plot",
		"--out-dir", t.TempDir())
	if err != nil {
		t.Fatalf("simulate error: %v", err)
	}
	var body struct {
		Results []seriesResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Results) != 2 || len(body.Results[0].Summary.Median) != 1 {
		t.Fatalf("expected single-point curves for 2 models, got %+v", body.Results)
	}

	if _, err := execute(t, "simulate", "--config", cfg, "--n-iter", "20"); err == nil {
		t.Fatalf("expected error when n_init+n_iter exceeds the dataset")
	}
	if _, err := execute(t, "simulate", "--config", cfg, "--n-repl", "0"); err == nil {
		t.Fatalf("expected error for n_repl 0")
	}
	if _, err := execute(t, "simulate"); err == nil {
		t.Fatalf("expected error without --config")
	}
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFixture(t, dir, "data.csv", testCSV)
	a := writeFixture(t, dir, "a.csv", "init_0,init_1,step_1,step_2\n0,1,5,4\n2,3,6,5\n")
	b := writeFixture(t, dir, "b.csv", "init_0,init_1,step_1,step_2\n0,1,2,3\n2,3,4,1\n")

	out, err := execute(t, "compare", "--dataset", data, "--response", "y",
		"--history", "greedy="+a, "--history", "slow="+b,
		"--plot", filepath.Join(dir, "compare.png"))
	if err != nil {
		t.Fatalf("compare error: %v", err)
	}
	if !strings.Contains(out, "greedy vs slow") || !strings.Contains(out, "better: greedy") {
		t.Fatalf("unexpected compare output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "compare.png")); err != nil {
		t.Fatalf("expected plot: %v", err)
	}

	if _, err := execute(t, "compare", "--dataset", data, "--response", "y", "--history", "only="+a); err == nil {
		t.Fatalf("expected error for a single history")
	}
	if _, err := execute(t, "compare", "--dataset", data, "--response", "y", "--history", "bad", "--history", "x="+b); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
}

func TestCorruptHistoryRejected(t *testing.T) {
	dir := t.TempDir()
	data := writeFixture(t, dir, "data.csv", testCSV)
	good := writeFixture(t, dir, "good.csv", "init_0,init_1,step_1\n0,1,5\n")
	repeated := writeFixture(t, dir, "repeated.csv", "init_0,init_1,step_1\n0,1,1\n")
	outOfRange := writeFixture(t, dir, "range.csv", "init_0,init_1,step_1\n0,1,12\n")

	for _, path := range []string{repeated, outOfRange} {
		_, err := execute(t, "summarize", "--history", path, "--dataset", data, "--response", "y")
		if !errors.Is(err, acquisition.ErrInvalidConfiguration) {
			t.Fatalf("summarize %s: expected ErrInvalidConfiguration, got %v", filepath.Base(path), err)
		}
	}

	_, err := execute(t, "compare", "--dataset", data, "--response", "y",
		"--history", "ok="+good, "--history", "bad="+repeated)
	if !errors.Is(err, acquisition.ErrInvalidConfiguration) {
		t.Fatalf("compare: expected ErrInvalidConfiguration, got %v", err)
	}
}
