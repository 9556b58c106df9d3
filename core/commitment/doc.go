// Package commitment builds the decision variables and linear constraints
// describing committable thermal units: on/off transitions, minimum up and
// down times with duration-aware lookback, hotness-ordered startup types,
// startup/shutdown power trajectories and availability gating. The emitted
// model is handed to an external solver; this package never solves anything
// and is deterministic in its inputs.
package commitment
