package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// LoadExperiment loads and parses an experiment file. A relative dataset
// path is resolved against the directory holding the experiment file.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file %s: %w", path, err)
	}
	exp, err := ParseExperimentYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse experiment file %s: %w", path, err)
	}
	if exp.Dataset.Path != "" && !filepath.IsAbs(exp.Dataset.Path) {
		exp.Dataset.Path = filepath.Join(filepath.Dir(path), exp.Dataset.Path)
	}
	return exp, nil
}

func applyDefaults(exp *Experiment) {
	if exp.LogLevel == "" {
		exp.LogLevel = DefaultLogLevel
	}
	if exp.Simulation.NInit == 0 {
		exp.Simulation.NInit = DefaultNInit
	}
	if exp.Simulation.NIter == 0 {
		exp.Simulation.NIter = DefaultNIter
	}
	if exp.Simulation.NRepl == 0 {
		exp.Simulation.NRepl = DefaultNRepl
	}
	if exp.Simulation.Seed == 0 {
		exp.Simulation.Seed = DefaultSeed
	}
	applyModelDefaults(&exp.Model)
	for i := range exp.Compare {
		applyModelDefaults(&exp.Compare[i])
	}
	if exp.Report.UpperQuantile == 0 {
		exp.Report.UpperQuantile = DefaultUpperQuantile
	}
}

func applyModelDefaults(m *Model) {
	if m.Name == "" {
		m.Name = DefaultModel
	}
	if m.Name == "knn" && m.K == 0 {
		m.K = DefaultKNeighbors
	}
}

// validateExperiment performs validation on the experiment
func validateExperiment(exp *Experiment) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[exp.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", exp.LogLevel)
	}

	if err := validateDataset(&exp.Dataset); err != nil {
		return fmt.Errorf("dataset validation failed: %w", err)
	}

	if err := validateSimulation(&exp.Simulation); err != nil {
		return fmt.Errorf("simulation validation failed: %w", err)
	}

	if err := ValidateModel(exp.Model); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}
	labels := map[string]bool{exp.Model.DisplayLabel(): true}
	for i, m := range exp.Compare {
		if err := ValidateModel(m); err != nil {
			return fmt.Errorf("compare[%d] validation failed: %w", i, err)
		}
		if labels[m.DisplayLabel()] {
			return fmt.Errorf("compare[%d]: duplicate model label %s", i, m.DisplayLabel())
		}
		labels[m.DisplayLabel()] = true
	}

	q := exp.Report.UpperQuantile
	if q <= 0 || q >= 1 || math.IsNaN(q) {
		return fmt.Errorf("report upper_quantile must be between 0 and 1 (exclusive), got %f", q)
	}

	return nil
}

// validateDataset checks that exactly one data source is described
func validateDataset(d *Dataset) error {
	if d.Inline != nil {
		if d.Path != "" {
			return fmt.Errorf("path and inline are mutually exclusive")
		}
		if len(d.Inline.Responses) == 0 {
			return fmt.Errorf("inline dataset must have at least one response")
		}
		if len(d.Inline.Features) != len(d.Inline.Responses) {
			return fmt.Errorf("inline dataset has %d feature rows but %d responses",
				len(d.Inline.Features), len(d.Inline.Responses))
		}
		return nil
	}
	if d.Response == "" {
		return fmt.Errorf("response column is required when no inline dataset is given")
	}
	seen := make(map[string]bool)
	for _, f := range d.Features {
		if f == "" {
			return fmt.Errorf("feature column name cannot be empty")
		}
		if f == d.Response {
			return fmt.Errorf("response column %s cannot also be a feature", f)
		}
		if seen[f] {
			return fmt.Errorf("duplicate feature column: %s", f)
		}
		seen[f] = true
	}
	return nil
}

// validateSimulation checks the replication parameters on their own; the
// dataset-size relationship is checked once the data is loaded.
func validateSimulation(s *Simulation) error {
	if s.NInit < 1 {
		return fmt.Errorf("n_init must be positive, got %d", s.NInit)
	}
	if s.NIter < 0 {
		return fmt.Errorf("n_iter cannot be negative, got %d", s.NIter)
	}
	if s.NRepl < 1 {
		return fmt.Errorf("n_repl must be positive, got %d", s.NRepl)
	}
	return nil
}

// ValidateModel checks a model selection
func ValidateModel(m Model) error {
	switch m.Name {
	case "linear":
		if m.Alpha != 0 {
			return fmt.Errorf("alpha is only valid for ridge, got %f", m.Alpha)
		}
	case "ridge":
		if m.Alpha < 0 || math.IsNaN(m.Alpha) {
			return fmt.Errorf("ridge alpha cannot be negative, got %f", m.Alpha)
		}
	case "knn":
		if m.K < 1 {
			return fmt.Errorf("knn k must be positive, got %d", m.K)
		}
	default:
		return fmt.Errorf("invalid model name: %s (must be linear, ridge, or knn)", m.Name)
	}
	return nil
}
