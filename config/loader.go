package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file at path, overlays it onto Default(),
// and validates the result. Grounded on the teacher's internal/config/loader.go
// defaults-then-override-then-validate sequence.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
