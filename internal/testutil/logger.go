// Package testutil provides shared test helpers.
package testutil

import (
	"log/slog"
	"testing"
)

// tbWriter forwards log output to the test log, so it only surfaces on
// failure or with -v.
type tbWriter struct{ tb testing.TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}

// Logger returns a debug-level slog.Logger wired to tb.
func Logger(tb testing.TB) *slog.Logger {
	tb.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{tb}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
