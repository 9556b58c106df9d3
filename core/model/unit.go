package model

// StartupType is a hot/warm/cold start category. Types are ordered from
// hottest to coldest; a type may be selected only if the unit has been down
// for at least its cutoff and less than the next type's cutoff.
type StartupType struct {
	// Ordinal is 1 for the hottest type, assigned by the registry.
	Ordinal int `json:"-"`
	// DownTimeCutoffHours is the minimum down time before this type applies.
	DownTimeCutoffHours float64 `json:"down_time_cutoff_hours"`
	// RampRatePerHour is the startup trajectory ramp as a fraction of
	// capacity per hour.
	RampRatePerHour float64 `json:"ramp_rate_per_hour"`
	// CostPerMW is the fixed cost incurred per MW of capacity on a start of
	// this type.
	CostPerMW float64 `json:"cost_per_mw"`
}

// Unit is a committable generating resource whose on/off status is a
// decision variable.
type Unit struct {
	Name          string `json:"name"`
	BalancingType string `json:"balancing_type"`

	CapacityMW             float64 `json:"capacity_mw"`
	MinStableLevelFraction float64 `json:"min_stable_level_fraction"`

	// Steady-operation ramp limits, fraction of capacity per hour.
	RampUpWhenOnRate   float64 `json:"ramp_up_when_on_rate"`
	RampDownWhenOnRate float64 `json:"ramp_down_when_on_rate"`
	// ShutdownRampRatePerHour bounds the shutdown power trajectory.
	ShutdownRampRatePerHour float64 `json:"shutdown_ramp_rate_per_hour"`

	MinUpTimeHours   float64 `json:"min_up_time_hours"`
	MinDownTimeHours float64 `json:"min_down_time_hours"`

	// StartupTypes is ordered hottest to coldest. The hottest cutoff must
	// equal MinDownTimeHours.
	StartupTypes []StartupType `json:"startup_types"`

	// Auxiliary consumption: a fraction of committed capacity plus a
	// fraction of gross power output.
	AuxConsumptionFractionCapacity float64 `json:"aux_consumption_fraction_capacity"`
	AuxConsumptionFractionPower    float64 `json:"aux_consumption_fraction_power"`

	// PartialAvailabilityThreshold is the derate below which the unit can no
	// longer be committed at all. Zero means the default of 0.01.
	PartialAvailabilityThreshold float64 `json:"partial_availability_threshold"`

	// Violation penalty prices per MW-hour of violation. A nil pointer means
	// the corresponding violation is not allowed and no slack is created.
	RampUpViolationPenalty   *float64 `json:"ramp_up_violation_penalty"`
	RampDownViolationPenalty *float64 `json:"ramp_down_violation_penalty"`
	MinUpViolationPenalty    *float64 `json:"min_up_violation_penalty"`
	MinDownViolationPenalty  *float64 `json:"min_down_violation_penalty"`

	// Cost curve parameters used for objective terms and realized costs.
	VariableOMCostPerMWh float64 `json:"variable_om_cost_per_mwh"`
	FuelPricePerMMBtu    float64 `json:"fuel_price_per_mmbtu"`
	HeatRateMMBtuPerMWh  float64 `json:"heat_rate_mmbtu_per_mwh"`
	ShutdownCostPerMW    float64 `json:"shutdown_cost_per_mw"`

	// InitialCommitment seeds the state at the start of a linear horizon.
	InitialCommitment float64 `json:"initial_commitment"`
}

// DefaultPartialAvailabilityThreshold applies when a unit does not set one.
const DefaultPartialAvailabilityThreshold = 0.01

// AvailabilityThreshold returns the effective partial-availability threshold.
func (u *Unit) AvailabilityThreshold() float64 {
	if u.PartialAvailabilityThreshold > 0 {
		return u.PartialAvailabilityThreshold
	}
	return DefaultPartialAvailabilityThreshold
}

// PminMW returns the effective minimum stable output under the given derate.
func (u *Unit) PminMW(derate float64) float64 {
	return u.CapacityMW * derate * u.MinStableLevelFraction
}

// PmaxMW returns the effective maximum output under the given derate.
func (u *Unit) PmaxMW(derate float64) float64 {
	return u.CapacityMW * derate
}

// HasTrajectories reports whether the unit declares startup or shutdown
// power trajectory parameters.
func (u *Unit) HasTrajectories() bool {
	if u.ShutdownRampRatePerHour > 0 {
		return true
	}
	for _, s := range u.StartupTypes {
		if s.RampRatePerHour > 0 {
			return true
		}
	}
	return false
}

// FuelCostPerMWh is the fuel component of the marginal cost.
func (u *Unit) FuelCostPerMWh() float64 {
	return u.FuelPricePerMMBtu * u.HeatRateMMBtuPerMWh
}

// MarginalCostPerMWh is the full variable cost of one MWh of gross output.
func (u *Unit) MarginalCostPerMWh() float64 {
	return u.VariableOMCostPerMWh + u.FuelCostPerMWh()
}
