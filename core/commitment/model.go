package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// VarKind identifies a decision variable family.
type VarKind int

const (
	VarCommit VarKind = iota
	VarStartup
	VarShutdown
	VarSynced
	VarPowerAbovePmin
	VarStartupType
	VarStartupPower
	VarShutdownPower
	VarRampUpViol
	VarRampDownViol
	VarMinUpViol
	VarMinDownViol
)

var varKindNames = [...]string{
	"commit", "startup", "shutdown", "synced", "power_above_pmin",
	"startup_type", "startup_power", "shutdown_power",
	"ramp_up_viol", "ramp_down_viol", "min_up_viol", "min_down_viol",
}

func (k VarKind) String() string {
	if int(k) < len(varKindNames) {
		return varKindNames[k]
	}
	return "unknown"
}

// Constraint kinds. The temporal ones are the dual-extraction keys.
const (
	ConTransition     = "transition"
	ConSynced         = "synced"
	ConPowerMax       = "power_max"
	ConPowerMin       = "power_min"
	ConMinUp          = "min_up"
	ConMinDown        = "min_down"
	ConRampUp         = "ramp_up"
	ConRampDown       = "ramp_down"
	ConStartupUnique  = "startup_unique"
	ConStartupActive  = "startup_active"
	ConStartupRamp    = "startup_ramp"
	ConStartupMono    = "startup_monotone"
	ConStartupHandoff = "startup_handoff"
	ConShutdownRamp   = "shutdown_ramp"
	ConShutdownMono   = "shutdown_monotone"
	ConShutdownHand   = "shutdown_handoff"
)

// Variable is one decision variable with its domain.
type Variable struct {
	Unit        string
	Timepoint   int
	Kind        VarKind
	StartupType int // ordinal, 0 when not applicable
	Lower       float64
	Upper       float64 // +Inf when unbounded above
	Integer     bool
}

// Term is a linear coefficient on a variable index.
type Term struct {
	Var  int
	Coef float64
}

// Sense is a constraint direction.
type Sense int

const (
	SenseLE Sense = iota
	SenseGE
	SenseEQ
)

func (s Sense) String() string {
	switch s {
	case SenseLE:
		return "<="
	case SenseGE:
		return ">="
	default:
		return "=="
	}
}

// Constraint is one emitted linear constraint. Linked-boundary contributions
// are folded into RHS as constants.
type Constraint struct {
	Kind        string
	Unit        string
	Timepoint   int
	StartupType int
	Terms       []Term
	Sense       Sense
	RHS         float64
}

type varKey struct {
	unit  string
	tp    int
	kind  VarKind
	stype int
}

// Model is the deterministic variable/constraint set for one subproblem.
// Variable indices are dense and assigned in emission order, so identical
// inputs produce identical layouts.
type Model struct {
	BuildID  string
	Scenario string
	Fidelity Fidelity

	vars   []Variable
	varIdx map[varKey]int
	cons   []Constraint
	obj    map[int]float64
}

func newModel(buildID, scenario string, fidelity Fidelity) *Model {
	return &Model{
		BuildID:  buildID,
		Scenario: scenario,
		Fidelity: fidelity,
		varIdx:   make(map[varKey]int),
		obj:      make(map[int]float64),
	}
}

func (m *Model) addVar(v Variable) int {
	k := varKey{unit: v.Unit, tp: v.Timepoint, kind: v.Kind, stype: v.StartupType}
	if idx, ok := m.varIdx[k]; ok {
		return idx
	}
	idx := len(m.vars)
	m.vars = append(m.vars, v)
	m.varIdx[k] = idx
	return idx
}

// Var returns the index of a variable, or -1 when it was never created.
func (m *Model) Var(unit string, tp int, kind VarKind, stype int) int {
	idx, ok := m.varIdx[varKey{unit: unit, tp: tp, kind: kind, stype: stype}]
	if !ok {
		return -1
	}
	return idx
}

// Variables returns the variables in index order.
func (m *Model) Variables() []Variable { return m.vars }

// Constraints returns the constraints in emission order.
func (m *Model) Constraints() []Constraint { return m.cons }

// AddConstraint appends a constraint. The orchestration layer uses this to
// couple units through load-balance and reserve constraints.
func (m *Model) AddConstraint(c Constraint) int {
	m.cons = append(m.cons, c)
	return len(m.cons) - 1
}

// AddObjective accumulates a minimization coefficient on a variable.
func (m *Model) AddObjective(varIdx int, coef float64) {
	m.obj[varIdx] += coef
}

// Objective returns the dense minimization cost vector.
func (m *Model) Objective() []float64 {
	c := make([]float64, len(m.vars))
	for i, v := range m.obj {
		c[i] = v
	}
	return c
}

// Fingerprint hashes the variable domains, constraint coefficients and
// objective. Two builds from identical inputs must produce equal
// fingerprints regardless of BuildID.
func (m *Model) Fingerprint() string {
	h := sha256.New()
	var b strings.Builder
	for _, v := range m.vars {
		fmt.Fprintf(&b, "v|%s|%d|%s|%d|%g|%g|%t\n", v.Unit, v.Timepoint, v.Kind, v.StartupType, v.Lower, v.Upper, v.Integer)
	}
	for _, c := range m.cons {
		fmt.Fprintf(&b, "c|%s|%s|%d|%d|%s|%g|", c.Kind, c.Unit, c.Timepoint, c.StartupType, c.Sense, c.RHS)
		for _, t := range c.Terms {
			fmt.Fprintf(&b, "%d:%g,", t.Var, t.Coef)
		}
		b.WriteByte('\n')
	}
	for i, coef := range m.Objective() {
		if coef != 0 {
			fmt.Fprintf(&b, "o|%d|%g\n", i, coef)
		}
	}
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// HasIntegerVars reports whether the model needs a MILP solver.
func (m *Model) HasIntegerVars() bool {
	for _, v := range m.vars {
		if v.Integer {
			return true
		}
	}
	return false
}

// Stats summarizes the model for metrics sinks.
type Stats struct {
	Variables   int
	Constraints int
	Integers    int
}

// Stats counts variables, constraints and integer variables.
func (m *Model) Stats() Stats {
	s := Stats{Variables: len(m.vars), Constraints: len(m.cons)}
	for _, v := range m.vars {
		if v.Integer {
			s.Integers++
		}
	}
	return s
}

// inf is the unbounded upper limit for non-negative variables.
var inf = math.Inf(1)
