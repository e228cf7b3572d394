package config

import (
	"strings"
	"testing"
)

func TestParseExperimentYAMLStringAppliesDefaults(t *testing.T) {
	exp, err := ParseExperimentYAMLString(`
dataset:
  response: yield
`)
	if err != nil {
		t.Fatalf("ParseExperimentYAMLString failed: %v", err)
	}
	if exp.LogLevel != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", exp.LogLevel)
	}
	if exp.Simulation.NInit != DefaultNInit || exp.Simulation.NIter != DefaultNIter || exp.Simulation.NRepl != DefaultNRepl {
		t.Errorf("unexpected simulation defaults: %+v", exp.Simulation)
	}
	if exp.Simulation.Seed != DefaultSeed {
		t.Errorf("expected seed %d, got %d", DefaultSeed, exp.Simulation.Seed)
	}
	if exp.Model.Name != "linear" || !exp.Model.FitIntercept() {
		t.Errorf("unexpected model defaults: %+v", exp.Model)
	}
	if exp.Report.UpperQuantile != DefaultUpperQuantile {
		t.Errorf("expected upper quantile %f, got %f", DefaultUpperQuantile, exp.Report.UpperQuantile)
	}
}

func TestParseExperimentYAMLInline(t *testing.T) {
	exp, err := ParseExperimentYAMLString(`
dataset:
  inline:
    x: [[1], [5], [3]]
    y: [1, 5, 3]
simulation: {n_init: 1, n_iter: 2, n_repl: 4, seed: 9}
model: {name: ridge, alpha: 0.5, intercept: false}
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := len(exp.Dataset.Inline.Features); got != 3 {
		t.Fatalf("expected 3 inline rows, got %d", got)
	}
	if exp.Model.FitIntercept() {
		t.Error("expected intercept disabled")
	}
	if exp.Model.DisplayLabel() != "ridge" {
		t.Errorf("expected label to default to name, got %q", exp.Model.DisplayLabel())
	}
}

func TestParseExperimentYAMLKNNDefaultK(t *testing.T) {
	exp, err := ParseExperimentYAMLString(`
dataset: {response: y}
model: {name: knn}
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if exp.Model.K != DefaultKNeighbors {
		t.Errorf("expected k=%d, got %d", DefaultKNeighbors, exp.Model.K)
	}
}

func TestParseExperimentYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"malformed", "dataset: [", "failed to parse experiment yaml"},
		{"no dataset", "log_level: info", "response column is required"},
		{"bad log level", "log_level: loud\ndataset: {response: y}", "invalid log_level"},
		{"negative n_init", "dataset: {response: y}\nsimulation: {n_init: -1}", "n_init must be positive"},
		{"negative n_iter", "dataset: {response: y}\nsimulation: {n_iter: -2}", "n_iter cannot be negative"},
		{"negative n_repl", "dataset: {response: y}\nsimulation: {n_repl: -3}", "n_repl must be positive"},
		{"unknown model", "dataset: {response: y}\nmodel: {name: forest}", "invalid model name"},
		{"negative alpha", "dataset: {response: y}\nmodel: {name: ridge, alpha: -1}", "alpha cannot be negative"},
		{"alpha on linear", "dataset: {response: y}\nmodel: {name: linear, alpha: 2}", "only valid for ridge"},
		{"quantile out of range", "dataset: {response: y}\nreport: {upper_quantile: 1.5}", "upper_quantile"},
		{"response as feature", "dataset: {response: y, features: [a, y]}", "cannot also be a feature"},
		{"duplicate feature", "dataset: {response: y, features: [a, a]}", "duplicate feature"},
		{"inline mismatch", "dataset: {inline: {x: [[1]], y: [1, 2]}}", "feature rows"},
		{"inline and path", "dataset: {path: d.csv, inline: {x: [[1]], y: [1]}}", "mutually exclusive"},
		{"duplicate compare label", "dataset: {response: y}\ncompare: [{name: linear}]", "duplicate model label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExperimentYAMLString(tt.yaml)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMarshalExperimentYAMLRoundTrip(t *testing.T) {
	exp, err := ParseExperimentYAMLString("dataset: {response: y}\nmodel: {name: ridge, alpha: 2}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	data, err := MarshalExperimentYAML(exp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	again, err := ParseExperimentYAML(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if again.Model.Alpha != 2 || again.Model.Name != "ridge" {
		t.Fatalf("model lost in round trip: %+v", again.Model)
	}
}
