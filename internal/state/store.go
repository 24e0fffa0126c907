// Package state persists processing-run history in a local SQLite database.
package state

import "time"

// RunStatus represents the lifecycle state of a file-processing run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunMode says what was done with the generated statements.
type RunMode string

const (
	RunModeExecute RunMode = "execute"
	RunModeScript  RunMode = "script"
)

// Run records the processing of one source file.
type Run struct {
	ID          string
	SourceFile  string
	ReportID    string
	Mode        RunMode
	Statements  int
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Store is the run-history persistence interface.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// CreateRun records the start of a file's processing.
	CreateRun(sourceFile, reportID string, mode RunMode) (*Run, error)
	// CompleteRun finalizes a run with its status, statement count and
	// optional error message.
	CompleteRun(id string, status RunStatus, statements int, errMsg string) error
	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)
}
