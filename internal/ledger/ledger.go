// Package ledger records batch runs and their per-item outcomes.
package ledger

import (
	"context"
	"time"
)

// Item states as stored in batch_items.state.
const (
	StateSubmitted = "submitted"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateTimedOut  = "timed_out"
)

// Run statuses as stored in batch_runs.status.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunHalted   = "halted"
)

type Run struct {
	ID        string
	BaseURL   string
	Total     int
	StartedAt time.Time
}

type Item struct {
	RunID    string
	Index    int
	Subject  string
	Audio    string
	Frames   int
	PromptID string
	State    string
	Outputs  []string
	Error    string
	Elapsed  time.Duration
}

// RunResult closes a run.
type RunResult struct {
	Status    string
	Succeeded int
	Failed    int
	Error     string
}

type Recorder interface {
	StartRun(ctx context.Context, run Run) error
	// RecordItem inserts or replaces the row for (RunID, Index).
	RecordItem(ctx context.Context, item Item) error
	FinishRun(ctx context.Context, runID string, res RunResult) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) StartRun(context.Context, Run) error                { return nil }
func (Nop) RecordItem(context.Context, Item) error             { return nil }
func (Nop) FinishRun(context.Context, string, RunResult) error { return nil }
