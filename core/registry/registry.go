package registry

import (
	"fmt"
	"math"

	"github.com/gridfold/ucommit/core/model"
)

// cutoffTolerance absorbs float noise when comparing down-time cutoffs.
const cutoffTolerance = 1e-9

// Registry holds read-only unit characteristics with a precomputed
// unit -> ordered startup-type index. Iteration order is insertion order so
// model construction stays deterministic.
type Registry struct {
	units  []*model.Unit
	byName map[string]*model.Unit
}

// New validates the units and builds the index. Startup types must have
// strictly increasing cutoffs, the hottest cutoff must equal the unit's
// minimum down time, and a unit with a zero minimum stable level may not
// declare startup or shutdown trajectory parameters.
func New(units []model.Unit) (*Registry, error) {
	r := &Registry{byName: make(map[string]*model.Unit, len(units))}
	for i := range units {
		u := units[i]
		if err := validate(&u); err != nil {
			return nil, err
		}
		for s := range u.StartupTypes {
			u.StartupTypes[s].Ordinal = s + 1
		}
		if _, dup := r.byName[u.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate unit %s", model.ErrConfiguration, u.Name)
		}
		r.units = append(r.units, &u)
		r.byName[u.Name] = &u
	}
	return r, nil
}

func validate(u *model.Unit) error {
	if u.Name == "" {
		return fmt.Errorf("%w: unit with empty name", model.ErrConfiguration)
	}
	if u.CapacityMW <= 0 {
		return fmt.Errorf("%w: unit %s has non-positive capacity", model.ErrConfiguration, u.Name)
	}
	if u.MinStableLevelFraction < 0 || u.MinStableLevelFraction > 1 {
		return fmt.Errorf("%w: unit %s min stable level %v outside [0,1]", model.ErrConfiguration, u.Name, u.MinStableLevelFraction)
	}
	if u.MinStableLevelFraction == 0 && u.HasTrajectories() {
		return fmt.Errorf("%w: unit %s has zero min stable level but declares startup/shutdown trajectories", model.ErrConfiguration, u.Name)
	}
	prev := math.Inf(-1)
	for i, s := range u.StartupTypes {
		if s.DownTimeCutoffHours <= prev {
			return fmt.Errorf("%w: unit %s startup-type cutoffs not strictly increasing at position %d", model.ErrConfiguration, u.Name, i)
		}
		prev = s.DownTimeCutoffHours
	}
	if len(u.StartupTypes) > 0 {
		hottest := u.StartupTypes[0].DownTimeCutoffHours
		if math.Abs(hottest-u.MinDownTimeHours) > cutoffTolerance {
			return fmt.Errorf("%w: unit %s hottest cutoff %v != min down time %v", model.ErrConfiguration, u.Name, hottest, u.MinDownTimeHours)
		}
	}
	return nil
}

// Units returns the units in registration order.
func (r *Registry) Units() []*model.Unit {
	return r.units
}

// Unit looks a unit up by name.
func (r *Registry) Unit(name string) (*model.Unit, bool) {
	u, ok := r.byName[name]
	return u, ok
}

// StartupTypes returns the ordered hottest-to-coldest index for a unit.
func (r *Registry) StartupTypes(name string) []model.StartupType {
	u, ok := r.byName[name]
	if !ok {
		return nil
	}
	return u.StartupTypes
}
