package metrics

import "github.com/gridfold/ucommit/core/model"

// MultiSink fans observations out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordBuild forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordBuild(rec BuildRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordBuild(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordResults forwards the rows to all sinks, returning the first error.
func (m *MultiSink) RecordResults(scenario string, rows []model.ResultRow) error {
	for _, s := range m.Sinks {
		if err := s.RecordResults(scenario, rows); err != nil {
			return err
		}
	}
	return nil
}
