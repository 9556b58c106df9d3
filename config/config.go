package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/metrics"
)

// Config is the scenario configuration of the commitment engine: the unit
// and timepoint tables, the commitment fidelity and the ambient backends.
type Config struct {
	Scenario   string          `json:"scenario"`
	Fidelity   string          `json:"fidelity"`
	Units      []model.Unit    `json:"units"`
	Timepoints []TimepointSpec `json:"timepoints"`
	Horizons   []HorizonSpec   `json:"horizons"`
	LinkStore  LinkStoreConfig `json:"link_store"`
	Metrics    metrics.Config  `json:"metrics"`
}

// TimepointSpec mirrors the timepoint table rows.
type TimepointSpec struct {
	ID            int     `json:"id"`
	DurationHours float64 `json:"duration_hours"`
	Weight        float64 `json:"weight"`
	Period        string  `json:"period"`
	Horizon       string  `json:"horizon"`
	BalancingType string  `json:"balancing_type"`
}

// HorizonSpec declares a horizon and its boundary treatment.
type HorizonSpec struct {
	Name          string `json:"name"`
	BalancingType string `json:"balancing_type"`
	Boundary      string `json:"boundary"` // linear, linked or circular
	Timepoints    []int  `json:"timepoints"`
}

// Load reads a JSON or YAML scenario file. Environment variables prefixed
// with UC_ override individual keys, with __ standing in for dots.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("UC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "uc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.LinkStore.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the scenario-level fields; unit characteristics are
// validated again, in depth, by the registry.
func (c *Config) Validate() error {
	if c.Scenario == "" {
		return fmt.Errorf("scenario name is required")
	}
	switch c.Fidelity {
	case "", "binary", "linear":
	default:
		return fmt.Errorf("unknown fidelity %q", c.Fidelity)
	}
	for _, h := range c.Horizons {
		if _, err := ParseBoundary(h.Boundary); err != nil {
			return fmt.Errorf("horizon %s: %w", h.Name, err)
		}
	}
	if err := c.LinkStore.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// ParseBoundary maps the configured boundary string to a BoundaryType.
func ParseBoundary(s string) (model.BoundaryType, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return model.BoundaryLinear, nil
	case "linked":
		return model.BoundaryLinked, nil
	case "circular":
		return model.BoundaryCircular, nil
	default:
		return 0, fmt.Errorf("unknown boundary type %q", s)
	}
}

// Tables converts the specs into the model's timepoint and horizon tables.
func (c *Config) Tables() ([]model.Timepoint, []model.Horizon, error) {
	tps := make([]model.Timepoint, 0, len(c.Timepoints))
	for _, s := range c.Timepoints {
		tps = append(tps, model.Timepoint{
			ID:            s.ID,
			DurationHours: s.DurationHours,
			Weight:        s.Weight,
			Period:        s.Period,
			Horizon:       s.Horizon,
			BalancingType: s.BalancingType,
		})
	}
	hzns := make([]model.Horizon, 0, len(c.Horizons))
	for _, s := range c.Horizons {
		b, err := ParseBoundary(s.Boundary)
		if err != nil {
			return nil, nil, err
		}
		hzns = append(hzns, model.Horizon{
			Name:          s.Name,
			BalancingType: s.BalancingType,
			Boundary:      b,
			Timepoints:    s.Timepoints,
		})
	}
	return tps, hzns, nil
}
