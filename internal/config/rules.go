package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracecart/curator/internal/types"
)

// rulesFile is the on-disk layout of a quality rules file.
type rulesFile struct {
	Rules []types.QualityThresholdRule `yaml:"rules"`
}

// LoadRules reads quality threshold rules from a YAML file. Structural
// validation (category names, operator spelling, min/max ordering)
// happens later at registry insertion, not here.
func LoadRules(path string) ([]types.QualityThresholdRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	return file.Rules, nil
}

// SaveRules writes rules to a YAML file, e.g. to seed an editable copy
// of the built-in defaults.
func SaveRules(path string, rules []types.QualityThresholdRule) error {
	data, err := yaml.Marshal(rulesFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}
