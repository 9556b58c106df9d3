package linkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridfold/ucommit/core/model"
)

// FileStore keeps one JSON snapshot file per scenario under Dir. Go's JSON
// encoder emits the shortest round-trippable representation of a float64, so
// numeric bounds survive the hand-off without precision loss.
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("linkstore dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(scenario string) string {
	return filepath.Join(s.Dir, scenario+".json")
}

// Load reads the snapshot for a scenario, or ErrNotFound when none exists.
func (s *FileStore) Load(_ context.Context, scenario string) (map[string]*model.LinkedBoundaryRecord, error) {
	data, err := os.ReadFile(s.path(scenario))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, scenario)
	}
	if err != nil {
		return nil, err
	}
	var recs map[string]*model.LinkedBoundaryRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode boundary snapshot %s: %w", scenario, err)
	}
	return recs, nil
}

// Save atomically replaces the snapshot for a scenario.
func (s *FileStore) Save(_ context.Context, scenario string, recs map[string]*model.LinkedBoundaryRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(scenario) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(scenario))
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
