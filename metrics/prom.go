package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridfold/ucommit/core/model"
)

// PromSink records build statistics in Prometheus metrics.
type PromSink struct {
	builds      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	variables   *prometheus.GaugeVec
	constraints *prometheus.GaugeVec
	violations  *prometheus.CounterVec
}

// NewPromSink registers build metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are
// already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	builds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ucommit_builds_total",
		Help: "Total number of subproblem model builds",
	}, []string{"scenario", "fidelity"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ucommit_build_seconds",
		Help:    "Time spent constructing a subproblem model",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario", "fidelity"})
	variables := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_model_variables",
		Help: "Decision variables in the latest build",
	}, []string{"scenario"})
	constraints := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_model_constraints",
		Help: "Constraints in the latest build",
	}, []string{"scenario"})
	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ucommit_violation_mwh_total",
		Help: "Accumulated violation magnitudes from solved subproblems",
	}, []string{"scenario", "unit", "kind"})

	if err := reg.Register(builds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			builds = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(variables); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			variables = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(constraints); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			constraints = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(violations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			violations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		builds:      builds,
		duration:    duration,
		variables:   variables,
		constraints: constraints,
		violations:  violations,
	}, nil
}

// RecordBuild increments the build counter and records the model size.
func (s *PromSink) RecordBuild(rec BuildRecord) error {
	s.builds.WithLabelValues(rec.Scenario, rec.Fidelity).Inc()
	s.duration.WithLabelValues(rec.Scenario, rec.Fidelity).Observe(rec.Duration.Seconds())
	s.variables.WithLabelValues(rec.Scenario).Set(float64(rec.Variables))
	s.constraints.WithLabelValues(rec.Scenario).Set(float64(rec.Constraints))
	return nil
}

// RecordResults accumulates violation magnitudes per unit.
func (s *PromSink) RecordResults(scenario string, rows []model.ResultRow) error {
	for _, r := range rows {
		if r.RampUpViol > 0 {
			s.violations.WithLabelValues(scenario, r.Unit, "ramp_up").Add(r.RampUpViol)
		}
		if r.RampDownViol > 0 {
			s.violations.WithLabelValues(scenario, r.Unit, "ramp_down").Add(r.RampDownViol)
		}
		if r.MinUpViol > 0 {
			s.violations.WithLabelValues(scenario, r.Unit, "min_up").Add(r.MinUpViol)
		}
		if r.MinDownViol > 0 {
			s.violations.WithLabelValues(scenario, r.Unit, "min_down").Add(r.MinDownViol)
		}
	}
	return nil
}
