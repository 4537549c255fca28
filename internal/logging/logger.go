package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // "console" (default) or "json"
	// OutputPaths and ErrorOutputPaths accept file paths plus the names
	// "stdout" and "stderr". Every distinct destination receives every record.
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
	// Stream receives a copy of every record when set.
	Stream *StreamHub
}

// New constructs a slog logger using the provided options. Source locations
// are attached at debug level or in development mode.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}
	w, err := openDestinations(slices.Concat(outputs, errOutputs))
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		handler = newConsoleHandler(w, level, withSource)
	case "json":
		handler = newJSONHandler(w, level, withSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	return slog.New(newStreamHandler(handler, opts.Stream)), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openDestinations resolves each distinct destination to a writer, creating
// parent directories for files. Files are opened for append.
func openDestinations(paths []string) (io.Writer, error) {
	seen := make(map[string]bool, len(paths))
	var writers []io.Writer
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create log directory for %s: %w", path, err)
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, f)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
