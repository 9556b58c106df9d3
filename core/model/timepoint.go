package model

// BoundaryType defines how the first timepoint of a horizon relates to time
// before the horizon.
type BoundaryType int

const (
	// BoundaryLinear means the horizon has no predecessor; constraints
	// depending on a previous timepoint are skipped at the horizon start.
	BoundaryLinear BoundaryType = iota
	// BoundaryLinked means the predecessor state comes from the boundary
	// snapshot of a previously solved subproblem.
	BoundaryLinked
	// BoundaryCircular wraps the first timepoint back to the horizon's last.
	BoundaryCircular
)

func (b BoundaryType) String() string {
	switch b {
	case BoundaryLinear:
		return "linear"
	case BoundaryLinked:
		return "linked"
	case BoundaryCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// Timepoint is the smallest modeled time slice.
type Timepoint struct {
	ID            int
	DurationHours float64 // length of the slice in hours
	Weight        float64 // number of represented slices (scales costs)
	Period        string
	Horizon       string
	BalancingType string
}

// Horizon is a contiguous ordered run of timepoints sharing one boundary
// treatment for a given balancing type.
type Horizon struct {
	Name          string
	BalancingType string
	Boundary      BoundaryType
	Timepoints    []int // ordered timepoint IDs
}
