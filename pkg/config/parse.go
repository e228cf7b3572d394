package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseExperimentYAML parses an Experiment from YAML bytes, fills defaults
// and validates it.
// This is used for APIs where the experiment is provided as payload (not via filesystem).
func ParseExperimentYAML(data []byte) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment yaml: %w", err)
	}

	applyDefaults(&exp)

	if err := validateExperiment(&exp); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}

	return &exp, nil
}

// ParseExperimentYAMLString parses an Experiment from a YAML string and validates it.
func ParseExperimentYAMLString(yamlText string) (*Experiment, error) {
	return ParseExperimentYAML([]byte(yamlText))
}

// MarshalExperimentYAML renders an experiment back to YAML.
func MarshalExperimentYAML(exp *Experiment) ([]byte, error) {
	data, err := yaml.Marshal(exp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal experiment yaml: %w", err)
	}
	return data, nil
}
