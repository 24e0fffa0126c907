// Package engine orchestrates file processing: workbook loading, the
// two-pass change interpretation, and the execution or scripting of the
// resulting statements.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/finreport-labs/balproc/internal/db"
	"github.com/finreport-labs/balproc/internal/emit"
	"github.com/finreport-labs/balproc/internal/ident"
	"github.com/finreport-labs/balproc/internal/loader"
	"github.com/finreport-labs/balproc/internal/state"
)

// Config holds engine configuration.
type Config struct {
	// DB is the PostgreSQL connection used for ID allocation and, in
	// execute mode, for running the generated statements.
	DB db.Config
	// StatePath is the path to the SQLite run-history database.
	StatePath string
}

// Engine processes change-log workbooks against one database connection.
type Engine struct {
	client *db.Client
	store  state.Store
	logger *slog.Logger
}

// New connects to PostgreSQL and opens the run-history store.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client, err := db.Connect(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = client.Close()
		_ = store.Close()
		return nil, err
	}

	return &Engine{client: client, store: store, logger: logger}, nil
}

// Close releases the database connection and the state store.
func (e *Engine) Close() {
	if e.client != nil {
		_ = e.client.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// Store exposes the run-history store.
func (e *Engine) Store() state.Store {
	return e.store
}

// ProcessFile interprets one workbook into an ordered statement script.
// The identifier registry is created fresh here: a token in one file never
// refers to the same entity in another.
func (e *Engine) ProcessFile(ctx context.Context, path string) (*emit.FileScript, error) {
	wb, err := loader.Read(path)
	if err != nil {
		return nil, err
	}

	e.logger.Info("processing file",
		slog.String("file", filepath.Base(path)),
		slog.String("report_id", wb.ReportID),
		slog.Int("rows", len(wb.Rows)))

	reg := ident.NewRegistry(e.client, e.logger)
	proc := NewProcessor(reg, wb.ReportID, e.logger)
	script := proc.Process(ctx, wb.Rows)
	script.SourceFile = filepath.Base(path)
	script.ReportID = wb.ReportID
	return script, nil
}

// ExecuteFile processes a workbook and runs its statements in one
// transaction, recording the run in the history store.
func (e *Engine) ExecuteFile(ctx context.Context, path string) (*emit.FileScript, error) {
	script, err := e.ProcessFile(ctx, path)
	if err != nil {
		return nil, err
	}

	run, storeErr := e.store.CreateRun(script.SourceFile, script.ReportID, state.RunModeExecute)
	if storeErr != nil {
		e.logger.Warn("failed to record run", slog.Any("error", storeErr))
	}

	executed, execErr := e.client.Execute(ctx, script.Statements)
	if run != nil {
		status := state.RunStatusCompleted
		errMsg := ""
		if execErr != nil {
			status = state.RunStatusFailed
			errMsg = execErr.Error()
		}
		if err := e.store.CompleteRun(run.ID, status, executed, errMsg); err != nil {
			e.logger.Warn("failed to finalize run record", slog.Any("error", err))
		}
	}
	if execErr != nil {
		return script, fmt.Errorf("executing %s: %w", script.SourceFile, execErr)
	}

	e.logger.Info("file executed",
		slog.String("file", script.SourceFile), slog.Int("statements", executed))
	return script, nil
}

// ScriptFile processes a workbook for script output, recording the run in
// the history store.
func (e *Engine) ScriptFile(ctx context.Context, path string) (*emit.FileScript, error) {
	script, err := e.ProcessFile(ctx, path)
	if err != nil {
		return nil, err
	}

	run, storeErr := e.store.CreateRun(script.SourceFile, script.ReportID, state.RunModeScript)
	if storeErr != nil {
		e.logger.Warn("failed to record run", slog.Any("error", storeErr))
	} else if err := e.store.CompleteRun(run.ID, state.RunStatusCompleted, script.StatementCount(), ""); err != nil {
		e.logger.Warn("failed to finalize run record", slog.Any("error", err))
	}

	return script, nil
}
