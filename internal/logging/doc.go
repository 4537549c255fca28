// Package logging assembles structured slog loggers and formatting helpers used
// across shothook.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handler code can automatically
// tag log lines with action identifiers, users, job ids, and correlation IDs.
// A bounded StreamHub keeps recent records for the daemon status socket, and a
// no-op logger is provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
