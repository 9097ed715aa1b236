// Package store defines storage interfaces for persisting filled daily
// series and the outcome of each chart-generation run.
package store

import (
	"context"
	"time"

	"presscount/internal/domain"
)

// SeriesStore persists and retrieves snapshots of filled daily series.
type SeriesStore interface {
	// WriteSeries persists every series of one run, keyed by the last day
	// of their range.
	WriteSeries(ctx context.Context, series []domain.DailySeries) (string, error)

	// ReadSeries loads the snapshot whose range ends on lastDay.
	ReadSeries(ctx context.Context, lastDay time.Time) ([]domain.DailySeries, error)

	// ListSnapshots returns the last days of all stored snapshots, oldest first.
	ListSnapshots(ctx context.Context) ([]time.Time, error)
}

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusOK      RunStatus = "ok"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one invocation of the chart pipeline.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Source       string
	Status       RunStatus
	Observations int
	Groups       int
	FirstDay     time.Time
	LastDay      time.Time
	Synthesized  int
	Outputs      []string
	Error        string
}

// RunStore records pipeline runs.
type RunStore interface {
	// StartRun inserts a new run in the running state.
	StartRun(ctx context.Context, run *Run) error

	// FinishRun persists the final state of a run.
	FinishRun(ctx context.Context, run *Run) error

	// GetRun retrieves a single run by its ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
