// Package logging assembles structured slog loggers used across lingosub.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with project IDs, run IDs, stages and languages. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
