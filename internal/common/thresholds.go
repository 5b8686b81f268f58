package common

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Thresholds is the optional YAML overlay for the tunable heuristics.
// Missing keys keep their environment (or built-in) defaults.
type Thresholds struct {
	Scan           *ScanConfig    `yaml:"scan"`
	Anomaly        *AnomalyConfig `yaml:"anomaly"`
	MinOccurrences *int           `yaml:"correction_min_occurrences"`
}

// ApplyThresholdsFile overlays the YAML file at path onto cfg.
// An empty path is a no-op.
func ApplyThresholdsFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thresholds file: %w", err)
	}
	var t Thresholds
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return fmt.Errorf("parse thresholds file: %w", err)
	}
	if t.Scan != nil {
		cfg.Scan = *t.Scan
	}
	if t.Anomaly != nil {
		cfg.Anomaly = *t.Anomaly
	}
	if t.MinOccurrences != nil {
		cfg.Learning.MinOccurrences = *t.MinOccurrences
	}
	return nil
}
