package linkstore

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gridfold/ucommit/core/model"
)

func sampleRecords() map[string]*model.LinkedBoundaryRecord {
	return map[string]*model.LinkedBoundaryRecord{
		"ccgt_1": {
			Unit:    "ccgt_1",
			BuildID: "build-1",
			Tail: []model.BoundaryTimepoint{
				{
					StartHoursBeforeEnd: 1.0 / 3.0,
					DurationHours:       1.0 / 3.0,
					Commitment:          1,
					Startup:             0,
					Shutdown:            0,
					Synced:              1,
					PowerAbovePmin:      math.Pi,
					PminMW:              120.5,
					PmaxMW:              400,
					RampUpWhenOnRate:    0.3,
				},
				{
					StartHoursBeforeEnd: 1.0/3.0 + 2,
					DurationHours:       2,
					Commitment:          1,
					Startup:             1,
					PowerAbovePmin:      17.25,
				},
			},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	want := sampleRecords()
	if err := s.Save(ctx, "base", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "base")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec := got["ccgt_1"]
	if rec == nil {
		t.Fatalf("unit record missing after round trip")
	}
	if rec.BuildID != "build-1" || len(rec.Tail) != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	// Boundary values must survive the hand-off bit for bit.
	if rec.Tail[0].PowerAbovePmin != math.Pi {
		t.Fatalf("power lost precision: got %v", rec.Tail[0].PowerAbovePmin)
	}
	if rec.Tail[0].DurationHours != 1.0/3.0 {
		t.Fatalf("duration lost precision: got %v", rec.Tail[0].DurationHours)
	}
	if last := rec.Last(); last == nil || last.PminMW != 120.5 {
		t.Fatalf("unexpected boundary timepoint: %+v", last)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Load(context.Background(), "never-saved"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := s.Save(ctx, "base", sampleRecords()); err != nil {
		t.Fatalf("save: %v", err)
	}
	next := sampleRecords()
	next["ccgt_1"].BuildID = "build-2"
	if err := s.Save(ctx, "base", next); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := s.Load(ctx, "base")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got["ccgt_1"].BuildID != "build-2" {
		t.Fatalf("expected latest snapshot, got %s", got["ccgt_1"].BuildID)
	}
}
