// Package progress writes the append-only run log that records batch
// boundaries, per-row outcomes, rate-limit pauses and checkpoints.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/medusecase/internal/model"
)

// Log is a structured progress log
type Log struct {
	logger *slog.Logger
	closer io.Closer
}

// Open appends to the log file at path. An empty path discards everything.
func Open(path string) (*Log, error) {
	if path == "" {
		return New(io.Discard), nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open progress log: %w", err)
	}

	l := New(f)
	l.closer = f
	return l, nil
}

// New logs to w
func New(w io.Writer) *Log {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Log{logger: slog.New(handler)}
}

// Close closes the underlying file, if any
func (l *Log) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// RunStarted records the run parameters
func (l *Log) RunStarted(input, output string, rows int, provider, modelName string) {
	l.logger.Info("run started", "input", input, "output", output, "rows", rows, "provider", provider, "model", modelName)
}

// LookupCompleted records how many rows the lookup table resolved
func (l *Log) LookupCompleted(resolved int) {
	l.logger.Info("lookup pass completed", "resolved", resolved)
}

// BatchStarted records a batch and its pending row count
func (l *Log) BatchStarted(batch, total, start, end, pending int) {
	l.logger.Info("batch started", "batch", batch, "of", total, "rows", fmt.Sprintf("%d-%d", start, end-1), "pending", pending)
}

// BatchCompleted marks the end of a batch
func (l *Log) BatchCompleted(batch int) {
	l.logger.Info("batch completed", "batch", batch)
}

// RowProcessed records the usecase stored for a row and where it came from
func (l *Log) RowProcessed(rec model.Record, usecase, source string) {
	l.logger.Info("row processed", "row", rec.Index, "name", rec.Name, "usecase", usecase, "source", source)
}

// RowFailed records a non rate-limit error for a row
func (l *Log) RowFailed(rec model.Record, err error) {
	l.logger.Warn("row failed", "row", rec.Index, "name", rec.Name, "error", err)
}

// RateLimited records an exhausted rate limit and the chosen cooldown
func (l *Log) RateLimited(rec model.Record, wait time.Duration, err error) {
	l.logger.Warn("rate limited", "row", rec.Index, "name", rec.Name, "cooldown", wait, "error", err)
}

// Saved records a checkpoint write
func (l *Log) Saved(path string, rows int) {
	l.logger.Info("checkpoint saved", "path", path, "rows", rows)
}

// RunCompleted records the final statistics
func (l *Log) RunCompleted(stats model.Stats, elapsed time.Duration) {
	l.logger.Info("run completed",
		"total", stats.Total,
		"resolved", stats.Resolved,
		"unknown", stats.Unknown,
		"missing", stats.Missing,
		"elapsed", elapsed.Round(time.Second),
	)
}

// Error records a fatal error
func (l *Log) Error(msg string, err error) {
	l.logger.Error(msg, "error", err)
}
