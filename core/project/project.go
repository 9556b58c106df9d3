package project

import (
	"fmt"

	"github.com/gridfold/ucommit/core/commitment"
	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/core/registry"
	"github.com/gridfold/ucommit/core/sequence"
)

// Solution carries the values an external solver assigned to the model's
// variables, and constraint duals when the solver exposes them.
type Solution struct {
	Values []float64
	Duals  map[int]float64 // constraint index -> dual value
}

// Projector derives result rows, realized costs and boundary snapshots from
// a solved model. All methods are pure reads.
type Projector struct {
	reg   *registry.Registry
	graph *sequence.Graph
	m     *commitment.Model
	in    commitment.BuildInput
}

// New wires a projector over the model and the inputs it was built from.
func New(reg *registry.Registry, graph *sequence.Graph, m *commitment.Model, in commitment.BuildInput) *Projector {
	return &Projector{reg: reg, graph: graph, m: m, in: in}
}

func (p *Projector) value(sol *Solution, unit string, tp int, kind commitment.VarKind, stype int) float64 {
	idx := p.m.Var(unit, tp, kind, stype)
	if idx < 0 || idx >= len(sol.Values) {
		return 0
	}
	return sol.Values[idx]
}

// ResultRows builds one row per (unit, timepoint) in model emission order.
func (p *Projector) ResultRows(sol *Solution) ([]model.ResultRow, error) {
	if len(sol.Values) != len(p.m.Variables()) {
		return nil, fmt.Errorf("solution has %d values for %d variables", len(sol.Values), len(p.m.Variables()))
	}
	var rows []model.ResultRow
	for _, u := range p.reg.Units() {
		for _, t := range p.graph.TimepointsFor(u.BalancingType) {
			rows = append(rows, p.row(sol, u, t))
		}
	}
	return rows, nil
}

func (p *Projector) row(sol *Solution, u *model.Unit, t int) model.ResultRow {
	derate := p.in.Derate(u.Name, t)
	pmin := u.PminMW(derate)
	pmax := u.PmaxMW(derate)

	commit := p.value(sol, u.Name, t, commitment.VarCommit, 0)
	start := p.value(sol, u.Name, t, commitment.VarStartup, 0)
	stop := p.value(sol, u.Name, t, commitment.VarShutdown, 0)
	synced := p.value(sol, u.Name, t, commitment.VarSynced, 0)
	power := p.value(sol, u.Name, t, commitment.VarPowerAbovePmin, 0)

	traj := p.value(sol, u.Name, t, commitment.VarShutdownPower, 0)
	startupCost := 0.0
	active, activeVal := 0, 0.5
	for _, s := range u.StartupTypes {
		traj += p.value(sol, u.Name, t, commitment.VarStartupPower, s.Ordinal)
		ind := p.value(sol, u.Name, t, commitment.VarStartupType, s.Ordinal)
		startupCost += ind * s.CostPerMW * u.CapacityMW
		if ind > activeVal {
			active, activeVal = s.Ordinal, ind
		}
	}

	gross := power + pmin*commit + traj
	aux := u.AuxConsumptionFractionCapacity*pmax*commit + u.AuxConsumptionFractionPower*gross

	tp, _ := p.graph.Timepoint(t)
	wgt := tp.Weight
	if wgt == 0 {
		wgt = 1
	}
	energy := gross * tp.DurationHours * wgt

	row := model.ResultRow{
		Unit:          u.Name,
		Timepoint:     t,
		GrossPowerMW:  gross,
		AuxiliaryMW:   aux,
		NetPowerMW:    gross - aux,
		CommittedMW:   pmax * commit,
		Commitment:    commit,
		Startup:       start,
		Shutdown:      stop,
		Synced:        synced,
		ActiveStartup: active,
		VariableCost:  u.VariableOMCostPerMWh * energy,
		FuelCost:      u.FuelCostPerMWh() * energy,
		StartupCost:   startupCost * wgt,
		ShutdownCost:  stop * u.ShutdownCostPerMW * u.CapacityMW * wgt,
	}

	scale := tp.DurationHours * wgt
	if u.RampUpViolationPenalty != nil {
		row.RampUpViol = p.value(sol, u.Name, t, commitment.VarRampUpViol, 0)
		row.ViolationCost += row.RampUpViol * *u.RampUpViolationPenalty * scale
	}
	if u.RampDownViolationPenalty != nil {
		row.RampDownViol = p.value(sol, u.Name, t, commitment.VarRampDownViol, 0)
		row.ViolationCost += row.RampDownViol * *u.RampDownViolationPenalty * scale
	}
	if u.MinUpViolationPenalty != nil {
		row.MinUpViol = p.value(sol, u.Name, t, commitment.VarMinUpViol, 0)
		row.ViolationCost += row.MinUpViol * *u.MinUpViolationPenalty * scale
	}
	if u.MinDownViolationPenalty != nil {
		row.MinDownViol = p.value(sol, u.Name, t, commitment.VarMinDownViol, 0)
		row.ViolationCost += row.MinDownViol * *u.MinDownViolationPenalty * scale
	}
	return row
}

// BoundaryRecords snapshots the solved state at the flagged link timepoints
// for every unit. linkTimepoints must be the chronologically ordered tail of
// the subproblem; the records feed the linked horizons of the next one.
func (p *Projector) BoundaryRecords(sol *Solution, linkTimepoints []int) (map[string]*model.LinkedBoundaryRecord, error) {
	if len(linkTimepoints) == 0 {
		return nil, fmt.Errorf("no link timepoints flagged")
	}
	out := make(map[string]*model.LinkedBoundaryRecord, len(p.reg.Units()))
	for _, u := range p.reg.Units() {
		rec := &model.LinkedBoundaryRecord{Unit: u.Name, BuildID: p.m.BuildID}
		hours := 0.0
		for i := len(linkTimepoints) - 1; i >= 0; i-- {
			t := linkTimepoints[i]
			tp, ok := p.graph.Timepoint(t)
			if !ok {
				return nil, fmt.Errorf("unknown link timepoint %d", t)
			}
			hours += tp.DurationHours
			derate := p.in.Derate(u.Name, t)
			bt := model.BoundaryTimepoint{
				StartHoursBeforeEnd: hours,
				DurationHours:       tp.DurationHours,
				Commitment:          p.value(sol, u.Name, t, commitment.VarCommit, 0),
				Startup:             p.value(sol, u.Name, t, commitment.VarStartup, 0),
				Shutdown:            p.value(sol, u.Name, t, commitment.VarShutdown, 0),
				Synced:              p.value(sol, u.Name, t, commitment.VarSynced, 0),
				PowerAbovePmin:      p.value(sol, u.Name, t, commitment.VarPowerAbovePmin, 0),
				ReserveUpMW:         p.in.ReserveUp(u.Name, t),
				ReserveDownMW:       p.in.ReserveDown(u.Name, t),
				ShutdownPowerMW:     p.value(sol, u.Name, t, commitment.VarShutdownPower, 0),
				PminMW:              u.PminMW(derate),
				PmaxMW:              u.PmaxMW(derate),
				RampUpWhenOnRate:    u.RampUpWhenOnRate,
				RampDownWhenOnRate:  u.RampDownWhenOnRate,
			}
			for _, s := range u.StartupTypes {
				bt.StartupPowerMW = append(bt.StartupPowerMW, p.value(sol, u.Name, t, commitment.VarStartupPower, s.Ordinal))
			}
			rec.Tail = append(rec.Tail, bt)
		}
		out[u.Name] = rec
	}
	return out, nil
}

// temporal constraint kinds exposed as duals
var dualKinds = map[string]bool{
	commitment.ConRampUp:   true,
	commitment.ConRampDown: true,
	commitment.ConMinUp:    true,
	commitment.ConMinDown:  true,
}

// Duals extracts the ramp and minimum up/down-time constraint duals keyed by
// (unit, timepoint). Returns nil when the solver provided none.
func (p *Projector) Duals(sol *Solution) []model.ConstraintDual {
	if len(sol.Duals) == 0 {
		return nil
	}
	var out []model.ConstraintDual
	for i, c := range p.m.Constraints() {
		if !dualKinds[c.Kind] {
			continue
		}
		v, ok := sol.Duals[i]
		if !ok {
			continue
		}
		out = append(out, model.ConstraintDual{Unit: c.Unit, Timepoint: c.Timepoint, Constraint: c.Kind, Value: v})
	}
	return out
}
