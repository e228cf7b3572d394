package simd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/seqlearn/internal/acquisition"
	"github.com/GoSim-25-26J-441/seqlearn/internal/dataset"
	"github.com/GoSim-25-26J-441/seqlearn/internal/experiment"
	"github.com/GoSim-25-26J-441/seqlearn/internal/regression"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// ParseRunInput parses and validates a submitted run so that bad input is
// rejected before a run is created. The daemon never reads dataset paths
// from its own filesystem: data comes inline or as DatasetCSV.
func ParseRunInput(in *RunInput) (*config.Experiment, *models.Dataset, error) {
	if in == nil || strings.TrimSpace(in.ExperimentYAML) == "" {
		return nil, nil, fmt.Errorf("%w: experiment_yaml is required", ErrInvalidInput)
	}
	exp, err := config.ParseExperimentYAMLString(in.ExperimentYAML)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if exp.Dataset.Inline == nil && strings.TrimSpace(in.DatasetCSV) == "" {
		return nil, nil, fmt.Errorf("%w: dataset_csv is required unless the experiment embeds its data inline", ErrInvalidInput)
	}
	ds, err := dataset.FromConfig(exp.Dataset, in.DatasetCSV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := acquisition.Validate(ds, experiment.Params(exp)); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, m := range experiment.Models(exp) {
		if _, err := regression.NewFactory(m); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if in.CallbackURL != "" {
		if err := validateCallbackURL(in.CallbackURL); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return exp, ds, nil
}

// runView is the JSON shape of a run returned by both transports
type runView struct {
	Run
	Models []string `json:"models"`
}

func newRunView(rec *RunRecord) runView {
	v := runView{Run: rec.Run}
	if rec.Experiment != nil {
		for _, m := range experiment.Models(rec.Experiment) {
			v.Models = append(v.Models, m.DisplayLabel())
		}
	}
	return v
}

// seriesFor returns the results of the named model, or the primary model
// when label is empty.
func seriesFor(rec *RunRecord, label string) (*SeriesResult, error) {
	if rec.Run.Status != models.RunStatusCompleted || len(rec.Results) == 0 {
		return nil, fmt.Errorf("%w: run %s is %s", ErrResultsUnavailable, rec.Run.ID, rec.Run.Status)
	}
	if label == "" {
		return &rec.Results[0], nil
	}
	for i := range rec.Results {
		if rec.Results[i].Label == label {
			return &rec.Results[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, label)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrModelNotFound)
}
