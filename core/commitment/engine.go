package commitment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/core/registry"
	"github.com/gridfold/ucommit/core/sequence"
	"github.com/gridfold/ucommit/infra/logger"
)

// BuildInput carries the per-subproblem data the engine does not own:
// availability derates, exogenous reserve obligations and, for linked
// horizons, the boundary snapshots of the previous subproblem. Missing map
// entries default to full availability and zero reserves.
type BuildInput struct {
	Scenario      string
	Availability  map[string]map[int]float64
	ReserveUpMW   map[string]map[int]float64
	ReserveDownMW map[string]map[int]float64
	Linked        map[string]*model.LinkedBoundaryRecord
}

func lookupOr(m map[string]map[int]float64, unit string, tp int, def float64) float64 {
	if byTp, ok := m[unit]; ok {
		if v, ok := byTp[tp]; ok {
			return v
		}
	}
	return def
}

// Derate returns the availability derate for a unit and timepoint.
func (in BuildInput) Derate(unit string, tp int) float64 {
	return lookupOr(in.Availability, unit, tp, 1)
}

// ReserveUp returns the upward reserve obligation in MW.
func (in BuildInput) ReserveUp(unit string, tp int) float64 {
	return lookupOr(in.ReserveUpMW, unit, tp, 0)
}

// ReserveDown returns the downward reserve obligation in MW.
func (in BuildInput) ReserveDown(unit string, tp int) float64 {
	return lookupOr(in.ReserveDownMW, unit, tp, 0)
}

// Engine emits commitment variables and constraints for every registered
// unit. Construction is single-threaded and pure in its declared inputs.
type Engine struct {
	reg      *registry.Registry
	graph    *sequence.Graph
	fidelity Fidelity
	log      logger.Logger
}

// NewEngine wires an engine over a validated registry and sequencing graph.
func NewEngine(reg *registry.Registry, graph *sequence.Graph, fidelity Fidelity, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{reg: reg, graph: graph, fidelity: fidelity, log: log}
}

// Build constructs the model for one subproblem. It fails before emitting
// anything if a linked horizon lacks a boundary record for some unit.
func (e *Engine) Build(in BuildInput) (*Model, error) {
	m := newModel(uuid.NewString(), in.Scenario, e.fidelity)
	for _, u := range e.reg.Units() {
		if err := e.checkLinks(u, in); err != nil {
			return nil, err
		}
	}
	for _, u := range e.reg.Units() {
		ub := &unitBuild{m: m, u: u, in: in, graph: e.graph, linked: in.Linked[u.Name]}
		if err := ub.run(); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Name, err)
		}
	}
	st := m.Stats()
	e.log.Debugw("commitment model built", map[string]any{
		"build_id":    m.BuildID,
		"scenario":    m.Scenario,
		"fidelity":    m.Fidelity.String(),
		"variables":   st.Variables,
		"constraints": st.Constraints,
	})
	return m, nil
}

func (e *Engine) checkLinks(u *model.Unit, in BuildInput) error {
	for _, h := range e.graph.Horizons(u.BalancingType) {
		if h.Boundary != model.BoundaryLinked {
			continue
		}
		if in.Linked[u.Name].Last() == nil {
			return fmt.Errorf("%w: unit %s, horizon %s", model.ErrMissingLink, u.Name, h.Name)
		}
	}
	if len(e.graph.Horizons(u.BalancingType)) == 0 {
		return fmt.Errorf("%w: unit %s has no horizons for balancing type %s", model.ErrConfiguration, u.Name, u.BalancingType)
	}
	return nil
}
