// Package sequence resolves temporal adjacency for commitment constraints.
// It answers which timepoint precedes another under a horizon's boundary
// treatment and computes duration-weighted lookback windows, including the
// portion of a window that falls before a linked subproblem boundary.
package sequence
