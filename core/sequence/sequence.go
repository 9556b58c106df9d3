package sequence

import (
	"fmt"

	"github.com/gridfold/ucommit/core/model"
)

// PrevKind describes what Previous resolved to.
type PrevKind int

const (
	// PrevNone means the timepoint opens a linear horizon and has no
	// predecessor; dependent constraints must be skipped.
	PrevNone PrevKind = iota
	// PrevTimepoint means a real prior timepoint exists in the horizon.
	PrevTimepoint
	// PrevLinked means the predecessor is the boundary snapshot of the
	// previously solved subproblem.
	PrevLinked
)

// Prev is the resolution of a timepoint's predecessor.
type Prev struct {
	Kind      PrevKind
	Timepoint int // valid only when Kind is PrevTimepoint
}

// Window is the set of timepoints whose start instant falls inside a
// lookback interval before a reference timepoint.
type Window struct {
	// Timepoints is ordered nearest-first.
	Timepoints []int
	// CrossesLinked is set when the interval extends past a linked
	// boundary. LinkedOffsetHours is then the distance in hours from the
	// reference timepoint's start back to the boundary instant; boundary
	// tail timepoints at StartHoursBeforeEnd h belong to the window when
	// LinkedOffsetHours+h lies inside [lo, hi).
	CrossesLinked     bool
	LinkedOffsetHours float64
	// TruncatedLinear is set when the interval was cut short at the start
	// of a linear horizon.
	TruncatedLinear bool
}

// Graph resolves temporal adjacency per balancing type.
type Graph struct {
	tps   map[int]model.Timepoint
	hzns  map[string]map[int]*horizonPos
	order map[string][]*model.Horizon
}

type horizonPos struct {
	hzn *model.Horizon
	pos int
}

// NewGraph indexes the timepoint table and horizon definitions. Horizons of
// the same balancing type must not share timepoints.
func NewGraph(tps []model.Timepoint, hzns []model.Horizon) (*Graph, error) {
	g := &Graph{
		tps:   make(map[int]model.Timepoint, len(tps)),
		hzns:  make(map[string]map[int]*horizonPos),
		order: make(map[string][]*model.Horizon),
	}
	for _, tp := range tps {
		if tp.DurationHours <= 0 {
			return nil, fmt.Errorf("%w: timepoint %d has non-positive duration", model.ErrConfiguration, tp.ID)
		}
		g.tps[tp.ID] = tp
	}
	for i := range hzns {
		h := &hzns[i]
		byTp, ok := g.hzns[h.BalancingType]
		if !ok {
			byTp = make(map[int]*horizonPos)
			g.hzns[h.BalancingType] = byTp
		}
		for pos, id := range h.Timepoints {
			if _, ok := g.tps[id]; !ok {
				return nil, fmt.Errorf("%w: horizon %s references unknown timepoint %d", model.ErrConfiguration, h.Name, id)
			}
			if _, dup := byTp[id]; dup {
				return nil, fmt.Errorf("%w: timepoint %d appears in two horizons of balancing type %s", model.ErrConfiguration, id, h.BalancingType)
			}
			byTp[id] = &horizonPos{hzn: h, pos: pos}
		}
		g.order[h.BalancingType] = append(g.order[h.BalancingType], h)
	}
	return g, nil
}

// Horizons returns the horizons of a balancing type in definition order.
func (g *Graph) Horizons(balancingType string) []*model.Horizon {
	return g.order[balancingType]
}

// TimepointsFor returns all operational timepoints of a balancing type in
// horizon-then-position order.
func (g *Graph) TimepointsFor(balancingType string) []int {
	var out []int
	for _, h := range g.order[balancingType] {
		out = append(out, h.Timepoints...)
	}
	return out
}

// Timepoint returns the timepoint record for an ID.
func (g *Graph) Timepoint(id int) (model.Timepoint, bool) {
	tp, ok := g.tps[id]
	return tp, ok
}

// Duration returns the duration in hours of a timepoint, or zero if unknown.
func (g *Graph) Duration(id int) float64 {
	return g.tps[id].DurationHours
}

// Horizon returns the horizon holding a timepoint for a balancing type.
func (g *Graph) Horizon(balancingType string, tp int) (*model.Horizon, error) {
	hp, err := g.lookup(balancingType, tp)
	if err != nil {
		return nil, err
	}
	return hp.hzn, nil
}

// IsLast reports whether tp is the final timepoint of its horizon.
func (g *Graph) IsLast(balancingType string, tp int) (bool, error) {
	hp, err := g.lookup(balancingType, tp)
	if err != nil {
		return false, err
	}
	return hp.pos == len(hp.hzn.Timepoints)-1, nil
}

func (g *Graph) lookup(balancingType string, tp int) (*horizonPos, error) {
	byTp, ok := g.hzns[balancingType]
	if !ok {
		return nil, fmt.Errorf("%w: no horizons for balancing type %s", model.ErrConfiguration, balancingType)
	}
	hp, ok := byTp[tp]
	if !ok {
		return nil, fmt.Errorf("%w: timepoint %d not in any horizon of balancing type %s", model.ErrConfiguration, tp, balancingType)
	}
	return hp, nil
}

// Previous resolves the predecessor of tp under its horizon's boundary
// treatment.
func (g *Graph) Previous(balancingType string, tp int) (Prev, error) {
	hp, err := g.lookup(balancingType, tp)
	if err != nil {
		return Prev{}, err
	}
	if hp.pos > 0 {
		return Prev{Kind: PrevTimepoint, Timepoint: hp.hzn.Timepoints[hp.pos-1]}, nil
	}
	switch hp.hzn.Boundary {
	case model.BoundaryLinear:
		return Prev{Kind: PrevNone}, nil
	case model.BoundaryLinked:
		return Prev{Kind: PrevLinked}, nil
	case model.BoundaryCircular:
		return Prev{Kind: PrevTimepoint, Timepoint: hp.hzn.Timepoints[len(hp.hzn.Timepoints)-1]}, nil
	default:
		return Prev{}, fmt.Errorf("%w: unknown boundary type %d", model.ErrConfiguration, hp.hzn.Boundary)
	}
}

// LookbackWindow collects the timepoints whose start instant lies within
// [loHours, hiHours) before the start of tp, walking backwards and summing
// variable durations. The reference timepoint itself is included when
// loHours is zero. Circular horizons wrap at most one full cycle.
func (g *Graph) LookbackWindow(balancingType string, tp int, loHours, hiHours float64) (Window, error) {
	var w Window
	if hiHours <= loHours {
		return w, nil
	}
	hp, err := g.lookup(balancingType, tp)
	if err != nil {
		return w, err
	}
	hzn := hp.hzn
	offset := 0.0
	idx := hp.pos
	cur := tp
	steps := 0
	for offset < hiHours {
		if offset >= loHours {
			w.Timepoints = append(w.Timepoints, cur)
		}
		if idx == 0 {
			switch hzn.Boundary {
			case model.BoundaryLinear:
				w.TruncatedLinear = true
				return w, nil
			case model.BoundaryLinked:
				w.CrossesLinked = true
				w.LinkedOffsetHours = offset
				return w, nil
			case model.BoundaryCircular:
				idx = len(hzn.Timepoints)
			}
		}
		idx--
		cur = hzn.Timepoints[idx]
		offset += g.tps[cur].DurationHours
		steps++
		if steps >= len(hzn.Timepoints) {
			// Full circular cycle traversed.
			return w, nil
		}
	}
	return w, nil
}
