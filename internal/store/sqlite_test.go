package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewSQLiteRunStore(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := NewSQLiteRunStore(tmpDir)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	defer s.Close()

	stateDir := filepath.Join(tmpDir, ".scengen")
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		t.Error(".scengen directory was not created")
	}
	if _, err := os.Stat(filepath.Join(stateDir, "runs.db")); os.IsNotExist(err) {
		t.Error("runs.db was not created")
	}
	if s.Path() != filepath.Join(stateDir, "runs.db") {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestSQLiteRunStore_RecordList(t *testing.T) {
	s, err := NewSQLiteRunStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 3 {
		id, err := s.Record(ctx, Run{
			ConfigPath: "config.yaml",
			RunCount:   i,
			Seed:       100 + int64(i),
			Path:       filepath.Join("out", fmt.Sprintf("scenario_%d.yaml", i)),
			Agents:     4,
			Contracts:  2,
			Digest:     "abc",
			CapacityMW: 12.5,
			Plausible:  true,
			CreatedAt:  created,
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if id != int64(i+1) {
			t.Errorf("Record() id = %d, want %d", id, i+1)
		}
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List(2) returned %d runs", len(runs))
	}
	want := Run{
		ID:         3,
		ConfigPath: "config.yaml",
		RunCount:   2,
		Seed:       102,
		Path:       filepath.Join("out", "scenario_2.yaml"),
		Agents:     4,
		Contracts:  2,
		Digest:     "abc",
		CapacityMW: 12.5,
		Plausible:  true,
		CreatedAt:  created,
	}
	if diff := cmp.Diff(want, runs[0]); diff != "" {
		t.Errorf("newest run mismatch (-want +got):\n%s", diff)
	}
	if runs[1].RunCount != 1 {
		t.Errorf("second run count = %d, want 1", runs[1].RunCount)
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(0) returned %d runs, want 3", len(all))
	}
}

func TestSQLiteRunStore_RecordRequiresPath(t *testing.T) {
	s, err := NewSQLiteRunStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Record(context.Background(), Run{Seed: 1}); err == nil {
		t.Error("Record() without path should fail")
	}
}

func TestSQLiteRunStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewSQLiteRunStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(ctx, Run{Path: "a.yaml", Digest: "d"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteRunStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Path != "a.yaml" {
		t.Errorf("runs after reopen = %+v", runs)
	}
}
