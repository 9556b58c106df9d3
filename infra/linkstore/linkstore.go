// Package linkstore exchanges linked-boundary snapshots between
// sequentially solved subproblems. Subproblem N saves its tail state under a
// scenario key; subproblem N+1 loads it before building. The snapshot is an
// immutable message, never a shared in-process reference.
package linkstore

import (
	"context"
	"errors"

	"github.com/gridfold/ucommit/core/model"
)

// ErrNotFound is returned when no snapshot exists for a scenario, which is
// the normal state before the first subproblem has been solved.
var ErrNotFound = errors.New("no boundary snapshot for scenario")

// Store persists per-unit boundary records keyed by scenario.
type Store interface {
	Load(ctx context.Context, scenario string) (map[string]*model.LinkedBoundaryRecord, error)
	Save(ctx context.Context, scenario string, recs map[string]*model.LinkedBoundaryRecord) error
	Close() error
}
