package main

import (
	"fmt"
	"os"

	"github.com/de-bkg/gocrinex/pkg/hatanaka"
	"gopkg.in/yaml.v3"
)

// loadConfig returns the default settings, overwritten by the YAML file path if given
// and by order if not 0.
//
// Example file:
//
//	order: 3
//	maxOrder: 5
//	program: rnxgo
func loadConfig(path string, order int) (hatanaka.Config, error) {
	cfg := hatanaka.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if order != 0 {
		cfg.Order = order
		if cfg.MaxOrder < order {
			cfg.MaxOrder = order
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %v", err)
	}
	return cfg, nil
}
