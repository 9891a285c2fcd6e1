// Package logging assembles structured slog loggers and formatting helpers used
// across pantrypal services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so hydration code automatically
// tags log lines with owner, job, and record identifiers. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
