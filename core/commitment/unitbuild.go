package commitment

import (
	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/core/sequence"
)

// unitBuild emits variables and constraints for one unit. Emission order is
// fixed (timepoints in horizon order, constraint families in a set sequence)
// so the model layout is reproducible.
type unitBuild struct {
	m      *Model
	u      *model.Unit
	in     BuildInput
	graph  *sequence.Graph
	linked *model.LinkedBoundaryRecord
}

func (b *unitBuild) run() error {
	tps := b.graph.TimepointsFor(b.u.BalancingType)
	b.declareVariables(tps)
	for _, t := range tps {
		if err := b.emit(t); err != nil {
			return err
		}
		b.addObjective(t)
	}
	return nil
}

func (b *unitBuild) derate(t int) float64 { return b.in.Derate(b.u.Name, t) }
func (b *unitBuild) pmin(t int) float64   { return b.u.PminMW(b.derate(t)) }
func (b *unitBuild) pmax(t int) float64   { return b.u.PmaxMW(b.derate(t)) }

func (b *unitBuild) v(t int, kind VarKind, stype int) int {
	return b.m.Var(b.u.Name, t, kind, stype)
}

func (b *unitBuild) addCon(c Constraint) {
	c.Unit = b.u.Name
	b.m.AddConstraint(c)
}

// declareVariables creates the per-timepoint decision variables. Commitment
// and synced carry the availability gate in their upper bound: below the
// partial-availability threshold the unit cannot be committed at all.
func (b *unitBuild) declareVariables(tps []int) {
	lo, hi, integer := b.m.Fidelity.indicatorDomain()
	for _, t := range tps {
		d := b.derate(t)
		gate := hi
		if d < b.u.AvailabilityThreshold() {
			gate = 0
		} else if c := d + 1 - b.u.AvailabilityThreshold(); c < gate {
			gate = c
		}
		add := func(kind VarKind, stype int, lower, upper float64, isInt bool) {
			b.m.addVar(Variable{
				Unit: b.u.Name, Timepoint: t, Kind: kind, StartupType: stype,
				Lower: lower, Upper: upper, Integer: isInt,
			})
		}
		add(VarCommit, 0, lo, gate, integer)
		add(VarStartup, 0, lo, hi, integer)
		add(VarShutdown, 0, lo, hi, integer)
		add(VarSynced, 0, lo, gate, integer)

		span := b.pmax(t) - b.pmin(t)
		if span < 0 {
			span = 0
		}
		add(VarPowerAbovePmin, 0, 0, span, false)

		for _, s := range b.u.StartupTypes {
			add(VarStartupType, s.Ordinal, lo, hi, integer)
			spCap := 0.0
			if s.RampRatePerHour > 0 {
				spCap = b.pmin(t)
			}
			add(VarStartupPower, s.Ordinal, 0, spCap, false)
		}
		sdCap := 0.0
		if b.u.ShutdownRampRatePerHour > 0 {
			sdCap = b.pmin(t)
		}
		add(VarShutdownPower, 0, 0, sdCap, false)

		if b.u.RampUpViolationPenalty != nil {
			add(VarRampUpViol, 0, 0, inf, false)
		}
		if b.u.RampDownViolationPenalty != nil {
			add(VarRampDownViol, 0, 0, inf, false)
		}
		if b.u.MinUpViolationPenalty != nil {
			add(VarMinUpViol, 0, 0, inf, false)
		}
		if b.u.MinDownViolationPenalty != nil {
			add(VarMinDownViol, 0, 0, inf, false)
		}
	}
}

func (b *unitBuild) emit(t int) error {
	p, err := b.graph.Previous(b.u.BalancingType, t)
	if err != nil {
		return err
	}
	b.transition(t, p)
	b.synced(t)
	b.powerEnvelope(t)
	if err := b.minUpDown(t); err != nil {
		return err
	}
	b.ramp(t, p)
	if err := b.startupTypes(t); err != nil {
		return err
	}
	b.trajectories(t, p)
	return nil
}

func (b *unitBuild) prevDuration(p sequence.Prev) float64 {
	if p.Kind == sequence.PrevTimepoint {
		return b.graph.Duration(p.Timepoint)
	}
	return b.linked.Last().DurationHours
}

// transition ties commitment changes to the startup and shutdown indicators.
// At a linear horizon start the unit is assumed off unless an initial
// commitment is configured; no constraint referencing a previous timepoint
// is emitted there.
func (b *unitBuild) transition(t int, p sequence.Prev) {
	terms := []Term{
		{Var: b.v(t, VarCommit, 0), Coef: 1},
		{Var: b.v(t, VarStartup, 0), Coef: -1},
		{Var: b.v(t, VarShutdown, 0), Coef: 1},
	}
	rhs := 0.0
	switch p.Kind {
	case sequence.PrevNone:
		if b.u.InitialCommitment <= 0 {
			return
		}
		rhs = b.u.InitialCommitment
	case sequence.PrevLinked:
		rhs = b.linked.Last().Commitment
	case sequence.PrevTimepoint:
		terms = append(terms, Term{Var: b.v(p.Timepoint, VarCommit, 0), Coef: -1})
	}
	b.addCon(Constraint{Kind: ConTransition, Timepoint: t, Terms: terms, Sense: SenseEQ, RHS: rhs})
}

// synced keeps the synced indicator at least as high as commitment plus the
// trajectory-power fraction of pmin. Omitted when pmin is structurally zero.
func (b *unitBuild) synced(t int) {
	pmin := b.pmin(t)
	if b.u.MinStableLevelFraction == 0 || pmin <= 0 {
		return
	}
	terms := []Term{
		{Var: b.v(t, VarSynced, 0), Coef: 1},
		{Var: b.v(t, VarCommit, 0), Coef: -1},
	}
	for _, s := range b.u.StartupTypes {
		terms = append(terms, Term{Var: b.v(t, VarStartupPower, s.Ordinal), Coef: -1 / pmin})
	}
	terms = append(terms, Term{Var: b.v(t, VarShutdownPower, 0), Coef: -1 / pmin})
	b.addCon(Constraint{Kind: ConSynced, Timepoint: t, Terms: terms, Sense: SenseGE, RHS: 0})
}

func (b *unitBuild) powerEnvelope(t int) {
	span := b.pmax(t) - b.pmin(t)
	if span < 0 {
		span = 0
	}
	b.addCon(Constraint{
		Kind: ConPowerMax, Timepoint: t,
		Terms: []Term{
			{Var: b.v(t, VarPowerAbovePmin, 0), Coef: 1},
			{Var: b.v(t, VarCommit, 0), Coef: -span},
		},
		Sense: SenseLE, RHS: -b.in.ReserveUp(b.u.Name, t),
	})
	b.addCon(Constraint{
		Kind: ConPowerMin, Timepoint: t,
		Terms: []Term{{Var: b.v(t, VarPowerAbovePmin, 0), Coef: 1}},
		Sense: SenseGE, RHS: b.in.ReserveDown(b.u.Name, t),
	})
}

// linkedSum totals f over boundary tail timepoints whose start instant falls
// inside [lo, hi) hours before t, given the window's boundary offset.
func (b *unitBuild) linkedSum(w sequence.Window, lo, hi float64, f func(model.BoundaryTimepoint) float64) float64 {
	if !w.CrossesLinked || b.linked == nil {
		return 0
	}
	sum := 0.0
	for _, bt := range b.linked.Tail {
		off := w.LinkedOffsetHours + bt.StartHoursBeforeEnd
		if off >= lo && off < hi {
			sum += f(bt)
		}
	}
	return sum
}

// minUpDown emits the minimum up-time and down-time lookback constraints.
// At a linear horizon start whose cumulative window is shorter than the
// minimum time the constraint is skipped, except at the horizon's last
// timepoint where no later constraint could cover the requirement.
func (b *unitBuild) minUpDown(t int) error {
	last, err := b.graph.IsLast(b.u.BalancingType, t)
	if err != nil {
		return err
	}
	if b.u.MinUpTimeHours > 0 {
		w, err := b.graph.LookbackWindow(b.u.BalancingType, t, 0, b.u.MinUpTimeHours)
		if err != nil {
			return err
		}
		if !(w.TruncatedLinear && !last) {
			terms := []Term{{Var: b.v(t, VarCommit, 0), Coef: 1}}
			if b.u.MinUpViolationPenalty != nil {
				terms = append(terms, Term{Var: b.v(t, VarMinUpViol, 0), Coef: 1})
			}
			for _, tp := range w.Timepoints {
				terms = append(terms, Term{Var: b.v(tp, VarStartup, 0), Coef: -1})
			}
			rhs := b.linkedSum(w, 0, b.u.MinUpTimeHours, func(bt model.BoundaryTimepoint) float64 { return bt.Startup })
			b.addCon(Constraint{Kind: ConMinUp, Timepoint: t, Terms: terms, Sense: SenseGE, RHS: rhs})
		}
	}
	if b.u.MinDownTimeHours > 0 {
		w, err := b.graph.LookbackWindow(b.u.BalancingType, t, 0, b.u.MinDownTimeHours)
		if err != nil {
			return err
		}
		if !(w.TruncatedLinear && !last) {
			terms := []Term{{Var: b.v(t, VarCommit, 0), Coef: -1}}
			if b.u.MinDownViolationPenalty != nil {
				terms = append(terms, Term{Var: b.v(t, VarMinDownViol, 0), Coef: 1})
			}
			for _, tp := range w.Timepoints {
				terms = append(terms, Term{Var: b.v(tp, VarShutdown, 0), Coef: -1})
			}
			rhs := b.linkedSum(w, 0, b.u.MinDownTimeHours, func(bt model.BoundaryTimepoint) float64 { return bt.Shutdown }) - 1
			b.addCon(Constraint{Kind: ConMinDown, Timepoint: t, Terms: terms, Sense: SenseGE, RHS: rhs})
		}
	}
	return nil
}

// ramp bounds the change of power above pmin between consecutive timepoints,
// net of reserve obligations. A constraint that could never bind (the rate
// traverses the whole operable range within the previous timepoint) is not
// emitted.
func (b *unitBuild) ramp(t int, p sequence.Prev) {
	if p.Kind == sequence.PrevNone {
		return
	}
	dur := b.prevDuration(p)
	operable := 1 - b.u.MinStableLevelFraction

	if b.u.RampUpWhenOnRate*dur < operable {
		terms := []Term{{Var: b.v(t, VarPowerAbovePmin, 0), Coef: 1}}
		if b.u.RampUpViolationPenalty != nil {
			terms = append(terms, Term{Var: b.v(t, VarRampUpViol, 0), Coef: -1})
		}
		rhs := b.u.RampUpWhenOnRate*b.pmax(t)*dur - b.in.ReserveUp(b.u.Name, t)
		if p.Kind == sequence.PrevTimepoint {
			terms = append(terms, Term{Var: b.v(p.Timepoint, VarPowerAbovePmin, 0), Coef: -1})
			rhs -= b.in.ReserveDown(b.u.Name, p.Timepoint)
		} else {
			lastTp := b.linked.Last()
			rhs += lastTp.PowerAbovePmin - lastTp.ReserveDownMW
		}
		b.addCon(Constraint{Kind: ConRampUp, Timepoint: t, Terms: terms, Sense: SenseLE, RHS: rhs})
	}

	if b.u.RampDownWhenOnRate*dur < operable {
		terms := []Term{{Var: b.v(t, VarPowerAbovePmin, 0), Coef: -1}}
		if b.u.RampDownViolationPenalty != nil {
			terms = append(terms, Term{Var: b.v(t, VarRampDownViol, 0), Coef: -1})
		}
		rhs := b.u.RampDownWhenOnRate*b.pmax(t)*dur - b.in.ReserveDown(b.u.Name, t)
		if p.Kind == sequence.PrevTimepoint {
			terms = append(terms, Term{Var: b.v(p.Timepoint, VarPowerAbovePmin, 0), Coef: 1})
			rhs -= b.in.ReserveUp(b.u.Name, p.Timepoint)
		} else {
			lastTp := b.linked.Last()
			rhs -= lastTp.PowerAbovePmin + lastTp.ReserveUpMW
		}
		b.addCon(Constraint{Kind: ConRampDown, Timepoint: t, Terms: terms, Sense: SenseLE, RHS: rhs})
	}
}

// startupTypes emits the uniqueness constraint and, for every type but the
// coldest, the activation window tying the type to a shutdown inside its
// down-time cutoff band. Windows cut short by a linear horizon start are
// skipped: a shutdown before the model began cannot be ruled out.
func (b *unitBuild) startupTypes(t int) error {
	n := len(b.u.StartupTypes)
	if n == 0 {
		return nil
	}
	terms := make([]Term, 0, n+1)
	for _, s := range b.u.StartupTypes {
		terms = append(terms, Term{Var: b.v(t, VarStartupType, s.Ordinal), Coef: 1})
	}
	terms = append(terms, Term{Var: b.v(t, VarStartup, 0), Coef: -1})
	b.addCon(Constraint{Kind: ConStartupUnique, Timepoint: t, Terms: terms, Sense: SenseEQ, RHS: 0})

	for i := 0; i < n-1; i++ {
		s := b.u.StartupTypes[i]
		lo := s.DownTimeCutoffHours
		hi := b.u.StartupTypes[i+1].DownTimeCutoffHours
		w, err := b.graph.LookbackWindow(b.u.BalancingType, t, lo, hi)
		if err != nil {
			return err
		}
		if w.TruncatedLinear {
			continue
		}
		act := []Term{{Var: b.v(t, VarStartupType, s.Ordinal), Coef: 1}}
		for _, tp := range w.Timepoints {
			act = append(act, Term{Var: b.v(tp, VarShutdown, 0), Coef: -1})
		}
		rhs := b.linkedSum(w, lo, hi, func(bt model.BoundaryTimepoint) float64 { return bt.Shutdown })
		b.addCon(Constraint{
			Kind: ConStartupActive, Timepoint: t, StartupType: s.Ordinal,
			Terms: act, Sense: SenseLE, RHS: rhs,
		})
	}
	return nil
}

// trajectories bounds startup and shutdown power against the previous
// trajectory value and keeps it monotone except at the transition timepoint.
func (b *unitBuild) trajectories(t int, p sequence.Prev) {
	if p.Kind == sequence.PrevNone {
		return
	}
	dur := b.prevDuration(p)
	capMW := b.u.CapacityMW

	for _, s := range b.u.StartupTypes {
		if s.RampRatePerHour <= 0 {
			continue
		}
		ord := s.Ordinal
		var prevSP float64
		prevVar := -1
		if p.Kind == sequence.PrevTimepoint {
			prevVar = b.v(p.Timepoint, VarStartupPower, ord)
		} else if lastTp := b.linked.Last(); len(lastTp.StartupPowerMW) >= ord {
			prevSP = lastTp.StartupPowerMW[ord-1]
		}

		ramp := []Term{{Var: b.v(t, VarStartupPower, ord), Coef: 1}}
		rhs := s.RampRatePerHour*b.pmax(t)*dur + prevSP
		if prevVar >= 0 {
			ramp = append(ramp, Term{Var: prevVar, Coef: -1})
		}
		b.addCon(Constraint{Kind: ConStartupRamp, Timepoint: t, StartupType: ord, Terms: ramp, Sense: SenseLE, RHS: rhs})

		mono := []Term{
			{Var: b.v(t, VarStartupPower, ord), Coef: 1},
			{Var: b.v(t, VarStartup, 0), Coef: capMW},
		}
		monoRHS := prevSP
		if prevVar >= 0 {
			mono = append(mono, Term{Var: prevVar, Coef: -1})
			monoRHS = 0
		}
		b.addCon(Constraint{Kind: ConStartupMono, Timepoint: t, StartupType: ord, Terms: mono, Sense: SenseGE, RHS: monoRHS})

		hand := []Term{
			{Var: b.v(t, VarPowerAbovePmin, 0), Coef: 1},
			{Var: b.v(t, VarStartupType, ord), Coef: b.pmin(t) + b.pmax(t)},
		}
		handRHS := s.RampRatePerHour*b.pmax(t)*dur + b.pmax(t) + prevSP
		if prevVar >= 0 {
			hand = append(hand, Term{Var: prevVar, Coef: -1})
			handRHS = s.RampRatePerHour*b.pmax(t)*dur + b.pmax(t)
		}
		b.addCon(Constraint{Kind: ConStartupHandoff, Timepoint: t, StartupType: ord, Terms: hand, Sense: SenseLE, RHS: handRHS})
	}

	if b.u.ShutdownRampRatePerHour > 0 {
		rate := b.u.ShutdownRampRatePerHour
		var prevSD, prevPower, prevPmin, prevPmax float64
		sdPrevVar, powerPrevVar := -1, -1
		if p.Kind == sequence.PrevTimepoint {
			sdPrevVar = b.v(p.Timepoint, VarShutdownPower, 0)
			powerPrevVar = b.v(p.Timepoint, VarPowerAbovePmin, 0)
			prevPmin = b.pmin(p.Timepoint)
			prevPmax = b.pmax(p.Timepoint)
		} else {
			lastTp := b.linked.Last()
			prevSD = lastTp.ShutdownPowerMW
			prevPower = lastTp.PowerAbovePmin
			prevPmin = lastTp.PminMW
			prevPmax = lastTp.PmaxMW
		}

		ramp := []Term{{Var: b.v(t, VarShutdownPower, 0), Coef: -1}}
		rhs := rate * b.pmax(t) * dur
		if sdPrevVar >= 0 {
			ramp = append(ramp, Term{Var: sdPrevVar, Coef: 1})
		} else {
			rhs -= prevSD
		}
		b.addCon(Constraint{Kind: ConShutdownRamp, Timepoint: t, Terms: ramp, Sense: SenseLE, RHS: rhs})

		mono := []Term{
			{Var: b.v(t, VarShutdownPower, 0), Coef: 1},
			{Var: b.v(t, VarShutdown, 0), Coef: -capMW},
		}
		monoRHS := prevSD
		if sdPrevVar >= 0 {
			mono = append(mono, Term{Var: sdPrevVar, Coef: -1})
			monoRHS = 0
		}
		b.addCon(Constraint{Kind: ConShutdownMono, Timepoint: t, Terms: mono, Sense: SenseLE, RHS: monoRHS})

		hand := []Term{
			{Var: b.v(t, VarShutdown, 0), Coef: prevPmin + prevPmax},
			{Var: b.v(t, VarShutdownPower, 0), Coef: -1},
		}
		handRHS := rate*b.pmax(t)*dur + prevPmax
		if powerPrevVar >= 0 {
			hand = append(hand, Term{Var: powerPrevVar, Coef: 1})
		} else {
			handRHS -= prevPower
		}
		b.addCon(Constraint{Kind: ConShutdownHand, Timepoint: t, Terms: hand, Sense: SenseLE, RHS: handRHS})
	}
}

// addObjective accumulates minimization costs: marginal cost on gross power,
// startup and shutdown costs on the indicators and penalty prices on the
// violation slacks. Weights scale represented slices; durations convert MW
// to MWh.
func (b *unitBuild) addObjective(t int) {
	tp, ok := b.graph.Timepoint(t)
	if !ok {
		return
	}
	wgt := tp.Weight
	if wgt == 0 {
		wgt = 1
	}
	scale := wgt * tp.DurationHours
	mc := b.u.MarginalCostPerMWh()

	b.m.AddObjective(b.v(t, VarPowerAbovePmin, 0), mc*scale)
	b.m.AddObjective(b.v(t, VarCommit, 0), mc*scale*b.pmin(t))
	b.m.AddObjective(b.v(t, VarShutdownPower, 0), mc*scale)
	for _, s := range b.u.StartupTypes {
		b.m.AddObjective(b.v(t, VarStartupPower, s.Ordinal), mc*scale)
		b.m.AddObjective(b.v(t, VarStartupType, s.Ordinal), s.CostPerMW*b.u.CapacityMW*wgt)
	}
	b.m.AddObjective(b.v(t, VarShutdown, 0), b.u.ShutdownCostPerMW*b.u.CapacityMW*wgt)

	if b.u.RampUpViolationPenalty != nil {
		b.m.AddObjective(b.v(t, VarRampUpViol, 0), *b.u.RampUpViolationPenalty*scale)
	}
	if b.u.RampDownViolationPenalty != nil {
		b.m.AddObjective(b.v(t, VarRampDownViol, 0), *b.u.RampDownViolationPenalty*scale)
	}
	if b.u.MinUpViolationPenalty != nil {
		b.m.AddObjective(b.v(t, VarMinUpViol, 0), *b.u.MinUpViolationPenalty*scale)
	}
	if b.u.MinDownViolationPenalty != nil {
		b.m.AddObjective(b.v(t, VarMinDownViol, 0), *b.u.MinDownViolationPenalty*scale)
	}
}
