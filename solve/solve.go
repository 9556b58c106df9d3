// Package solve adapts a built commitment model to the gonum simplex solver.
// Only the continuous relaxation is solvable here; binary-fidelity models
// need an external MILP solver and are rejected.
package solve

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/gridfold/ucommit/core/commitment"
)

// ErrIntegerModel is returned for models with integer variables.
var ErrIntegerModel = errors.New("model has integer variables; use an external MILP solver")

// Result holds the solved objective and per-variable values, indexed like
// the model's variables.
type Result struct {
	Objective float64
	Values    []float64
}

// lpSolve points to the simplex routine. It can be overridden in tests to
// simulate solver failures.
var lpSolve = lp.Simplex

// Relaxation solves the continuous relaxation of the model with gonum's
// simplex after converting it to standard form.
func Relaxation(m *commitment.Model) (*Result, error) {
	if m.HasIntegerVars() {
		return nil, ErrIntegerModel
	}
	vars := m.Variables()
	n := len(vars)
	if n == 0 {
		return &Result{}, nil
	}

	c := m.Objective()

	// Count inequality rows: one per LE/GE constraint, one per variable for
	// the lower bound and one more for each finite upper bound.
	cons := m.Constraints()
	rows := 0
	eqRows := 0
	for _, con := range cons {
		if con.Sense == commitment.SenseEQ {
			eqRows++
		} else {
			rows++
		}
	}
	for _, v := range vars {
		rows++
		if !math.IsInf(v.Upper, 1) {
			rows++
		}
	}

	g := mat.NewDense(rows, n, nil)
	h := make([]float64, rows)
	// eq must stay an untyped nil when there are no equality rows.
	var eq mat.Matrix
	var a *mat.Dense
	var b []float64
	if eqRows > 0 {
		a = mat.NewDense(eqRows, n, nil)
		b = make([]float64, eqRows)
		eq = a
	}

	ri, ei := 0, 0
	for _, con := range cons {
		switch con.Sense {
		case commitment.SenseEQ:
			for _, t := range con.Terms {
				a.Set(ei, t.Var, a.At(ei, t.Var)+t.Coef)
			}
			b[ei] = con.RHS
			ei++
		case commitment.SenseLE:
			for _, t := range con.Terms {
				g.Set(ri, t.Var, g.At(ri, t.Var)+t.Coef)
			}
			h[ri] = con.RHS
			ri++
		case commitment.SenseGE:
			for _, t := range con.Terms {
				g.Set(ri, t.Var, g.At(ri, t.Var)-t.Coef)
			}
			h[ri] = -con.RHS
			ri++
		}
	}
	for i, v := range vars {
		g.Set(ri, i, -1)
		h[ri] = -v.Lower
		ri++
		if !math.IsInf(v.Upper, 1) {
			g.Set(ri, i, 1)
			h[ri] = v.Upper
			ri++
		}
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, eq, b)
	opt, xStd, err := lpSolve(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}

	// Convert splits each free variable into a positive and a negative part,
	// stacked as [xp, xn, slacks] in the standard-form solution.
	values := make([]float64, n)
	for i, v := range vars {
		x := xStd[i] - xStd[n+i]
		// Clamp solver noise back into the variable's domain.
		if x < v.Lower {
			x = v.Lower
		}
		if !math.IsInf(v.Upper, 1) && x > v.Upper {
			x = v.Upper
		}
		values[i] = x
	}
	return &Result{Objective: opt, Values: values}, nil
}
