package commitment

import "fmt"

// Fidelity selects the variable domain of the commitment decision.
type Fidelity int

const (
	// FidelityBinary uses strict {0,1} indicators. The resulting model
	// requires a MILP solver.
	FidelityBinary Fidelity = iota
	// FidelityLinear relaxes indicators to the continuous interval [0,1].
	FidelityLinear
)

func (f Fidelity) String() string {
	switch f {
	case FidelityBinary:
		return "binary"
	case FidelityLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseFidelity maps a configuration string to a Fidelity.
func ParseFidelity(s string) (Fidelity, error) {
	switch s {
	case "binary":
		return FidelityBinary, nil
	case "linear", "":
		return FidelityLinear, nil
	default:
		return 0, fmt.Errorf("unknown commitment fidelity %q", s)
	}
}

// indicatorDomain returns the bounds and integrality of on/off indicators.
func (f Fidelity) indicatorDomain() (lower, upper float64, integer bool) {
	return 0, 1, f == FidelityBinary
}
