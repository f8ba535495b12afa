package cutoff

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"orthocheck/internal/evidence"
)

// Config holds the strictness constants for cutoff derivation. It is an
// explicit value passed to NewEngine so that several core sets can be
// processed concurrently with different settings.
type Config struct {
	// K is the per-score-type strictness multiplier: lower bound is
	// mean - k*stddev of the reference distribution.
	K map[evidence.ScoreType]float64 `yaml:"k"`
	// MinMargin is subtracted from the mean when the reference scores
	// have zero dispersion, so a single outlier query is not rejected
	// against a degenerate cutoff.
	MinMargin float64 `yaml:"min_margin"`
	// Required lists the score types that must have enough reference
	// evidence for a profile to be derivable at all.
	Required []evidence.ScoreType `yaml:"required"`
}

// DefaultConfig returns the standard strictness settings: k=2 for every
// score type, a 0.05 zero-dispersion margin, and both architecture
// similarity orientations required.
func DefaultConfig() Config {
	return Config{
		K: map[evidence.ScoreType]float64{
			evidence.FASForward: 2.0,
			evidence.FASReverse: 2.0,
			evidence.SeqSim:     2.0,
		},
		MinMargin: 0.05,
		Required:  []evidence.ScoreType{evidence.FASForward, evidence.FASReverse},
	}
}

// LoadConfig reads a YAML strictness config, layered over DefaultConfig:
// omitted fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read cutoff config: %w", err)
	}
	var raw struct {
		K         map[evidence.ScoreType]float64 `yaml:"k"`
		MinMargin *float64                       `yaml:"min_margin"`
		Required  []evidence.ScoreType           `yaml:"required"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse cutoff config %s: %w", path, err)
	}
	for t, k := range raw.K {
		if !t.Valid() {
			return cfg, fmt.Errorf("cutoff config %s: unknown score type %q", path, t)
		}
		if k < 0 {
			return cfg, fmt.Errorf("cutoff config %s: negative k for %s", path, t)
		}
		cfg.K[t] = k
	}
	if raw.MinMargin != nil {
		if *raw.MinMargin < 0 {
			return cfg, fmt.Errorf("cutoff config %s: negative min_margin", path)
		}
		cfg.MinMargin = *raw.MinMargin
	}
	if raw.Required != nil {
		for _, t := range raw.Required {
			if !t.Valid() {
				return cfg, fmt.Errorf("cutoff config %s: unknown required score type %q", path, t)
			}
		}
		cfg.Required = raw.Required
	}
	return cfg, nil
}

func (c Config) kFor(t evidence.ScoreType) float64 {
	if k, ok := c.K[t]; ok {
		return k
	}
	return 2.0
}

func (c Config) isRequired(t evidence.ScoreType) bool {
	for _, r := range c.Required {
		if r == t {
			return true
		}
	}
	return false
}
