package model

// BoundaryTimepoint is one tail timepoint of a finished subproblem, captured
// for consumption by the next subproblem's linked horizon. Hours are measured
// from the timepoint's start instant back from the subproblem boundary, so
// the last solved timepoint has StartHoursBeforeEnd equal to its duration.
type BoundaryTimepoint struct {
	StartHoursBeforeEnd float64 `json:"start_hours_before_end"`
	DurationHours       float64 `json:"duration_hours"`

	Commitment     float64 `json:"commitment"`
	Startup        float64 `json:"startup"`
	Shutdown       float64 `json:"shutdown"`
	Synced         float64 `json:"synced"`
	PowerAbovePmin float64 `json:"power_above_pmin"`
	ReserveUpMW    float64 `json:"reserve_up_mw"`
	ReserveDownMW  float64 `json:"reserve_down_mw"`

	// StartupPowerMW is indexed by startup-type ordinal minus one.
	StartupPowerMW  []float64 `json:"startup_power_mw"`
	ShutdownPowerMW float64   `json:"shutdown_power_mw"`

	// Effective limits and rates in force at this timepoint.
	PminMW             float64 `json:"pmin_mw"`
	PmaxMW             float64 `json:"pmax_mw"`
	RampUpWhenOnRate   float64 `json:"ramp_up_when_on_rate"`
	RampDownWhenOnRate float64 `json:"ramp_down_when_on_rate"`
}

// LinkedBoundaryRecord is the immutable per-unit snapshot handed from a
// solved subproblem to the next one. Tail is ordered from the timepoint
// nearest the boundary backwards.
type LinkedBoundaryRecord struct {
	Unit    string              `json:"unit"`
	BuildID string              `json:"build_id"`
	Tail    []BoundaryTimepoint `json:"tail"`
}

// Last returns the tail timepoint adjacent to the boundary, or nil when the
// record is empty.
func (r *LinkedBoundaryRecord) Last() *BoundaryTimepoint {
	if r == nil || len(r.Tail) == 0 {
		return nil
	}
	return &r.Tail[0]
}

// ResultRow is the per (unit, timepoint) projection of a solved subproblem.
type ResultRow struct {
	Unit      string `json:"unit"`
	Timepoint int    `json:"timepoint"`

	GrossPowerMW   float64 `json:"gross_power_mw"`
	AuxiliaryMW    float64 `json:"auxiliary_mw"`
	NetPowerMW     float64 `json:"net_power_mw"`
	CommittedMW    float64 `json:"committed_mw"`
	Commitment     float64 `json:"commitment"`
	Startup        float64 `json:"startup"`
	Shutdown       float64 `json:"shutdown"`
	Synced         float64 `json:"synced"`
	ActiveStartup  int     `json:"active_startup_type"` // ordinal, 0 = none
	RampUpViol     float64 `json:"ramp_up_violation"`
	RampDownViol   float64 `json:"ramp_down_violation"`
	MinUpViol      float64 `json:"min_up_violation"`
	MinDownViol    float64 `json:"min_down_violation"`
	VariableCost   float64 `json:"variable_cost"`
	FuelCost       float64 `json:"fuel_cost"`
	StartupCost    float64 `json:"startup_cost"`
	ShutdownCost   float64 `json:"shutdown_cost"`
	ViolationCost  float64 `json:"violation_cost"`
}

// ConstraintDual reports the dual value of a temporal constraint, keyed by
// unit and timepoint, when the external solver exposes duals.
type ConstraintDual struct {
	Unit       string  `json:"unit"`
	Timepoint  int     `json:"timepoint"`
	Constraint string  `json:"constraint"` // ramp_up, ramp_down, min_up, min_down
	Value      float64 `json:"value"`
}
