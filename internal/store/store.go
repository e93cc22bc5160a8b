// Package store defines the RunStore interface for the ledger of generated
// scenarios.
package store

import (
	"context"
	"time"
)

// Run records one generated scenario.
type Run struct {
	ID         int64     `json:"id"`
	ConfigPath string    `json:"config_path"`
	RunCount   int       `json:"run_count"`
	Seed       int64     `json:"seed"`
	Path       string    `json:"path"`
	Agents     int       `json:"agents"`
	Contracts  int       `json:"contracts"`
	Digest     string    `json:"digest"` // SHA-256 of the written document
	CapacityMW float64   `json:"capacity_mw"`
	Plausible  bool      `json:"plausible"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunStore persists the run ledger.
type RunStore interface {
	// Record stores run and returns its assigned ID.
	Record(ctx context.Context, run Run) (int64, error)

	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
