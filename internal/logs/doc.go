// Package logs tails daemon run logs from disk. The CLI falls back to it when
// the daemon is not running and its in-memory log stream is unavailable.
package logs
