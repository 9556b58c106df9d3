package metrics

import (
	"fmt"
	"time"

	"github.com/gridfold/ucommit/core/model"
)

// BuildRecord summarizes one subproblem model build.
type BuildRecord struct {
	Scenario    string
	BuildID     string
	Fidelity    string
	Variables   int
	Constraints int
	Duration    time.Duration
}

// Sink records build and result observations.
type Sink interface {
	RecordBuild(rec BuildRecord) error
	RecordResults(scenario string, rows []model.ResultRow) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordBuild(BuildRecord) error                 { return nil }
func (NopSink) RecordResults(string, []model.ResultRow) error { return nil }

// Config selects the metrics backend.
type Config struct {
	// Backend is "prometheus", "influx", "multi" or "nop".
	Backend      string `json:"backend"`
	InfluxURL    string `json:"influx_url"`
	InfluxToken  string `json:"influx_token"`
	InfluxOrg    string `json:"influx_org"`
	InfluxBucket string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "nop"
	}
}

// Validate checks the backend selection.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "nop", "prometheus", "influx", "multi":
		return nil
	default:
		return fmt.Errorf("unknown metrics backend %s", c.Backend)
	}
}

// NewSink builds the configured sink. The influx sink degrades to a NopSink
// when the health check fails.
func NewSink(cfg Config) (Sink, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "prometheus":
		return NewPromSink(nil)
	case "influx":
		return NewInfluxSinkWithFallback(cfg), nil
	case "multi":
		prom, err := NewPromSink(nil)
		if err != nil {
			return nil, err
		}
		return NewMultiSink(prom, NewInfluxSinkWithFallback(cfg)), nil
	default:
		return NopSink{}, nil
	}
}
