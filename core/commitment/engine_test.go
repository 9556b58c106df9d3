package commitment

import (
	"errors"
	"testing"

	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/core/registry"
	"github.com/gridfold/ucommit/core/sequence"
)

func hourlyGraph(t *testing.T, n int, boundary model.BoundaryType) *sequence.Graph {
	t.Helper()
	tps := make([]model.Timepoint, n)
	ids := make([]int, n)
	for i := range tps {
		tps[i] = model.Timepoint{ID: i, DurationHours: 1, Weight: 1, Horizon: "h1", BalancingType: "hour"}
		ids[i] = i
	}
	g, err := sequence.NewGraph(tps, []model.Horizon{{
		Name: "h1", BalancingType: "hour", Boundary: boundary, Timepoints: ids,
	}})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return g
}

func testUnit() model.Unit {
	return model.Unit{
		Name:                   "ccgt_1",
		BalancingType:          "hour",
		CapacityMW:             400,
		MinStableLevelFraction: 0.4,
		RampUpWhenOnRate:       0.25,
		RampDownWhenOnRate:     0.25,
		MinUpTimeHours:         3,
		MinDownTimeHours:       2,
		VariableOMCostPerMWh:   3,
		FuelPricePerMMBtu:      4,
		HeatRateMMBtuPerMWh:    7,
	}
}

func buildModel(t *testing.T, g *sequence.Graph, u model.Unit, in BuildInput) *Model {
	t.Helper()
	reg, err := registry.New([]model.Unit{u})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m, err := NewEngine(reg, g, FidelityLinear, nil).Build(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func findCons(m *Model, kind string, tp int) []Constraint {
	var out []Constraint
	for _, c := range m.Constraints() {
		if c.Kind == kind && c.Timepoint == tp {
			out = append(out, c)
		}
	}
	return out
}

func countCons(m *Model, kind string) int {
	n := 0
	for _, c := range m.Constraints() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestBuildDeterminism(t *testing.T) {
	g := hourlyGraph(t, 6, model.BoundaryLinear)
	in := BuildInput{
		Scenario:     "base",
		Availability: map[string]map[int]float64{"ccgt_1": {2: 0.8}},
		ReserveUpMW:  map[string]map[int]float64{"ccgt_1": {3: 20}},
	}
	m1 := buildModel(t, g, testUnit(), in)
	m2 := buildModel(t, g, testUnit(), in)
	if m1.BuildID == m2.BuildID {
		t.Fatalf("build ids must be unique")
	}
	if m1.Fingerprint() != m2.Fingerprint() {
		t.Fatalf("identical inputs must yield identical fingerprints")
	}
}

func TestLinearStartHasNoTransition(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinear)
	m := buildModel(t, g, testUnit(), BuildInput{Scenario: "base"})

	if cs := findCons(m, ConTransition, 0); len(cs) != 0 {
		t.Fatalf("linear start must not emit a transition constraint, got %+v", cs)
	}
	cs := findCons(m, ConTransition, 2)
	if len(cs) != 1 {
		t.Fatalf("expected one interior transition, got %d", len(cs))
	}
	if len(cs[0].Terms) != 4 || cs[0].Sense != SenseEQ || cs[0].RHS != 0 {
		t.Fatalf("unexpected interior transition: %+v", cs[0])
	}
}

func TestInitialCommitmentSeedsLinearStart(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinear)
	u := testUnit()
	u.InitialCommitment = 1
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	cs := findCons(m, ConTransition, 0)
	if len(cs) != 1 {
		t.Fatalf("expected a seeded transition at the horizon start")
	}
	if len(cs[0].Terms) != 3 || cs[0].RHS != 1 {
		t.Fatalf("seeded transition must use a constant previous state: %+v", cs[0])
	}
}

func TestLinkedHorizonRequiresRecord(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinked)
	reg, err := registry.New([]model.Unit{testUnit()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	eng := NewEngine(reg, g, FidelityLinear, nil)

	if _, err := eng.Build(BuildInput{Scenario: "base"}); !errors.Is(err, model.ErrMissingLink) {
		t.Fatalf("expected missing-link error, got %v", err)
	}
	// An empty record is as missing as no record.
	in := BuildInput{Scenario: "base", Linked: map[string]*model.LinkedBoundaryRecord{
		"ccgt_1": {Unit: "ccgt_1"},
	}}
	if _, err := eng.Build(in); !errors.Is(err, model.ErrMissingLink) {
		t.Fatalf("expected missing-link error for empty tail, got %v", err)
	}
}

func TestBuildRejectsUnitWithoutHorizons(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinear)
	u := testUnit()
	u.BalancingType = "week"
	reg, err := registry.New([]model.Unit{u})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, err := NewEngine(reg, g, FidelityLinear, nil).Build(BuildInput{}); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAvailabilityGate(t *testing.T) {
	g := hourlyGraph(t, 3, model.BoundaryLinear)
	u := testUnit()
	m := buildModel(t, g, u, BuildInput{
		Scenario: "base",
		Availability: map[string]map[int]float64{"ccgt_1": {
			0: 0.005, // below the default threshold
			1: model.DefaultPartialAvailabilityThreshold, // exactly at it
			2: 0.8,
		}},
	})

	vars := m.Variables()
	if up := vars[m.Var("ccgt_1", 0, VarCommit, 0)].Upper; up != 0 {
		t.Fatalf("derate below threshold must force commitment to zero, got upper %v", up)
	}
	if up := vars[m.Var("ccgt_1", 1, VarCommit, 0)].Upper; up != 1 {
		t.Fatalf("derate at threshold must still permit commitment, got upper %v", up)
	}
	if up := vars[m.Var("ccgt_1", 0, VarSynced, 0)].Upper; up != 0 {
		t.Fatalf("synced must carry the same gate, got upper %v", up)
	}
	// Power span follows the derated limits.
	wantSpan := u.PmaxMW(0.8) - u.PminMW(0.8)
	if up := vars[m.Var("ccgt_1", 2, VarPowerAbovePmin, 0)].Upper; up != wantSpan {
		t.Fatalf("expected power span %v, got %v", wantSpan, up)
	}
}

func TestMinUpWindowsOverLinearHorizon(t *testing.T) {
	g := hourlyGraph(t, 5, model.BoundaryLinear)
	u := testUnit()
	u.MinDownTimeHours = 0
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	// With a 3h minimum up time over 5 hourly timepoints, only the last two
	// windows are complete; truncated interior windows are skipped.
	if n := countCons(m, ConMinUp); n != 2 {
		t.Fatalf("expected 2 min-up constraints, got %d", n)
	}
	cs := findCons(m, ConMinUp, 4)
	if len(cs) != 1 {
		t.Fatalf("expected a min-up constraint at the horizon end")
	}
	// commit(4) - startup(4) - startup(3) - startup(2)
	if len(cs[0].Terms) != 4 || cs[0].Sense != SenseGE || cs[0].RHS != 0 {
		t.Fatalf("unexpected min-up constraint: %+v", cs[0])
	}
}

func TestMinUpLongerThanHorizonBindsAtLastTimepoint(t *testing.T) {
	g := hourlyGraph(t, 5, model.BoundaryLinear)
	u := testUnit()
	u.MinUpTimeHours = 10
	u.MinDownTimeHours = 0
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	if n := countCons(m, ConMinUp); n != 1 {
		t.Fatalf("expected only the end-of-horizon min-up constraint, got %d", n)
	}
	cs := findCons(m, ConMinUp, 4)
	if len(cs[0].Terms) != 6 {
		t.Fatalf("end constraint must cover every startup in the horizon: %+v", cs[0])
	}
}

func TestRampOmittedWhenItCannotBind(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinear)
	u := testUnit()
	u.RampUpWhenOnRate = 0.7 // traverses the 0.6 operable range within an hour
	u.RampDownWhenOnRate = 0.3
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	if n := countCons(m, ConRampUp); n != 0 {
		t.Fatalf("non-binding ramp-up constraints should be omitted, got %d", n)
	}
	if n := countCons(m, ConRampDown); n != 3 {
		t.Fatalf("expected ramp-down at each interior timepoint, got %d", n)
	}
}

func TestRampUsesReserves(t *testing.T) {
	g := hourlyGraph(t, 3, model.BoundaryLinear)
	u := testUnit()
	m := buildModel(t, g, u, BuildInput{
		Scenario:      "base",
		ReserveUpMW:   map[string]map[int]float64{"ccgt_1": {1: 15}},
		ReserveDownMW: map[string]map[int]float64{"ccgt_1": {0: 5}},
	})
	cs := findCons(m, ConRampUp, 1)
	if len(cs) != 1 {
		t.Fatalf("expected one ramp-up constraint at timepoint 1")
	}
	want := u.RampUpWhenOnRate*u.PmaxMW(1)*1 - 15 - 5
	if cs[0].RHS != want {
		t.Fatalf("ramp-up RHS: expected %v got %v", want, cs[0].RHS)
	}
}

func TestSyncedSkippedForZeroMinStableLevel(t *testing.T) {
	g := hourlyGraph(t, 3, model.BoundaryLinear)
	u := testUnit()
	u.MinStableLevelFraction = 0
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})
	if n := countCons(m, ConSynced); n != 0 {
		t.Fatalf("synced constraint meaningless at zero min stable level, got %d", n)
	}
}

func TestLinkedBoundaryFoldsIntoRHS(t *testing.T) {
	g := hourlyGraph(t, 3, model.BoundaryLinked)
	u := testUnit()
	rec := &model.LinkedBoundaryRecord{
		Unit: "ccgt_1", BuildID: "prev",
		Tail: []model.BoundaryTimepoint{{
			StartHoursBeforeEnd: 1, DurationHours: 1,
			Commitment: 1, PowerAbovePmin: 50, ReserveDownMW: 5,
			PminMW: u.PminMW(1), PmaxMW: u.PmaxMW(1),
		}},
	}
	m := buildModel(t, g, u, BuildInput{
		Scenario: "base",
		Linked:   map[string]*model.LinkedBoundaryRecord{"ccgt_1": rec},
	})

	cs := findCons(m, ConTransition, 0)
	if len(cs) != 1 || cs[0].RHS != 1 || len(cs[0].Terms) != 3 {
		t.Fatalf("linked transition must reference the snapshot as a constant: %+v", cs)
	}
	ru := findCons(m, ConRampUp, 0)
	if len(ru) != 1 {
		t.Fatalf("expected a ramp-up constraint across the boundary")
	}
	want := u.RampUpWhenOnRate*u.PmaxMW(1)*1 + 50 - 5
	if ru[0].RHS != want {
		t.Fatalf("boundary ramp-up RHS: expected %v got %v", want, ru[0].RHS)
	}
}

func TestStartupTypeConstraints(t *testing.T) {
	g := hourlyGraph(t, 6, model.BoundaryLinear)
	u := testUnit()
	u.StartupTypes = []model.StartupType{
		{DownTimeCutoffHours: 2, CostPerMW: 40},
		{DownTimeCutoffHours: 4, CostPerMW: 80},
		{DownTimeCutoffHours: 10, CostPerMW: 120},
	}
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	// One uniqueness constraint per timepoint: sum of types equals startup.
	if n := countCons(m, ConStartupUnique); n != 6 {
		t.Fatalf("expected 6 uniqueness constraints, got %d", n)
	}
	cs := findCons(m, ConStartupUnique, 3)
	if len(cs[0].Terms) != 4 || cs[0].Sense != SenseEQ {
		t.Fatalf("unexpected uniqueness constraint: %+v", cs[0])
	}

	// The hottest type's [2,4) window is complete only late in the horizon.
	var hotTps []int
	coldest := 0
	for _, c := range m.Constraints() {
		if c.Kind != ConStartupActive {
			continue
		}
		switch c.StartupType {
		case 1:
			hotTps = append(hotTps, c.Timepoint)
		case 3:
			coldest++
		}
	}
	if len(hotTps) != 2 || hotTps[0] != 4 || hotTps[1] != 5 {
		t.Fatalf("expected hottest activation at timepoints [4 5], got %v", hotTps)
	}
	if coldest != 0 {
		t.Fatalf("the coldest type is the fallback and needs no activation constraint")
	}
	// The [4,10) window never fits inside a 6h linear horizon.
	for _, c := range m.Constraints() {
		if c.Kind == ConStartupActive && c.StartupType == 2 {
			t.Fatalf("truncated activation window must be skipped: %+v", c)
		}
	}
}

func TestTrajectoryVariableBounds(t *testing.T) {
	g := hourlyGraph(t, 3, model.BoundaryLinear)
	u := testUnit()
	u.ShutdownRampRatePerHour = 0.2
	u.StartupTypes = []model.StartupType{
		{DownTimeCutoffHours: 2, RampRatePerHour: 0.3, CostPerMW: 40},
		{DownTimeCutoffHours: 6, CostPerMW: 90}, // no trajectory for this type
	}
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	vars := m.Variables()
	pmin := u.PminMW(1)
	if up := vars[m.Var("ccgt_1", 1, VarStartupPower, 1)].Upper; up != pmin {
		t.Fatalf("trajectory startup power capped at pmin: got %v want %v", up, pmin)
	}
	if up := vars[m.Var("ccgt_1", 1, VarStartupPower, 2)].Upper; up != 0 {
		t.Fatalf("type without a ramp rate gets a zero startup power cap, got %v", up)
	}
	if up := vars[m.Var("ccgt_1", 1, VarShutdownPower, 0)].Upper; up != pmin {
		t.Fatalf("shutdown power capped at pmin: got %v want %v", up, pmin)
	}

	// Trajectory constraints need a predecessor: none at the linear start.
	if cs := findCons(m, ConShutdownRamp, 0); len(cs) != 0 {
		t.Fatalf("no trajectory constraints at a linear start, got %+v", cs)
	}
	if cs := findCons(m, ConShutdownHand, 1); len(cs) != 1 {
		t.Fatalf("expected a shutdown hand-off constraint at timepoint 1")
	}
	if cs := findCons(m, ConStartupMono, 2); len(cs) != 1 || cs[0].StartupType != 1 {
		t.Fatalf("expected one startup monotonicity constraint for the trajectory type: %+v", cs)
	}
}

func TestViolationSlacksOnlyWhenPriced(t *testing.T) {
	g := hourlyGraph(t, 4, model.BoundaryLinear)
	u := testUnit()
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})
	if idx := m.Var("ccgt_1", 1, VarMinUpViol, 0); idx != -1 {
		t.Fatalf("unpriced violation must not create a slack variable")
	}

	pen := 5000.0
	u.MinUpViolationPenalty = &pen
	m = buildModel(t, g, u, BuildInput{Scenario: "base"})
	idx := m.Var("ccgt_1", 3, VarMinUpViol, 0)
	if idx == -1 {
		t.Fatalf("priced violation must create a slack variable")
	}
	if coef := m.Objective()[idx]; coef != pen {
		t.Fatalf("slack objective: expected %v got %v", pen, coef)
	}
	cs := findCons(m, ConMinUp, 3)
	found := false
	for _, term := range cs[0].Terms {
		if term.Var == idx && term.Coef == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("slack must enter the min-up constraint: %+v", cs[0])
	}
}

func TestObjectiveCoefficients(t *testing.T) {
	g := hourlyGraph(t, 2, model.BoundaryLinear)
	u := testUnit()
	m := buildModel(t, g, u, BuildInput{Scenario: "base"})

	mc := u.MarginalCostPerMWh() // 3 + 4*7 = 31
	if mc != 31 {
		t.Fatalf("marginal cost fixture drifted: %v", mc)
	}
	obj := m.Objective()
	if got := obj[m.Var("ccgt_1", 0, VarPowerAbovePmin, 0)]; got != mc {
		t.Fatalf("power coefficient: expected %v got %v", mc, got)
	}
	want := mc * u.PminMW(1)
	if got := obj[m.Var("ccgt_1", 0, VarCommit, 0)]; got != want {
		t.Fatalf("commit coefficient: expected %v got %v", want, got)
	}
}

func TestBinaryFidelityMarksIndicators(t *testing.T) {
	g := hourlyGraph(t, 2, model.BoundaryLinear)
	reg, err := registry.New([]model.Unit{testUnit()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m, err := NewEngine(reg, g, FidelityBinary, nil).Build(BuildInput{Scenario: "base"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !m.HasIntegerVars() {
		t.Fatalf("binary fidelity must mark indicator variables integer")
	}
	vars := m.Variables()
	if v := vars[m.Var("ccgt_1", 0, VarCommit, 0)]; !v.Integer {
		t.Fatalf("commitment must be integer under binary fidelity")
	}
	if v := vars[m.Var("ccgt_1", 0, VarPowerAbovePmin, 0)]; v.Integer {
		t.Fatalf("power must stay continuous under binary fidelity")
	}
}
