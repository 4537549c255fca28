package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"shothook/internal/config"
)

// RunLogPattern matches per-run daemon log files.
const RunLogPattern = "shothook-*.log"

// PruneRunLogs deletes run logs in cfg.Paths.LogDir older than
// logging.retention_days and reports how many went. current is never removed.
// A retention of zero keeps everything.
func PruneRunLogs(logger *slog.Logger, cfg *config.Config, current string) int {
	if cfg == nil || cfg.Logging.RetentionDays <= 0 || cfg.Paths.LogDir == "" {
		return 0
	}
	return pruneOlderThan(logger, cfg.Paths.LogDir, RunLogPattern,
		time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays), current)
}

func pruneOlderThan(logger *slog.Logger, dir, pattern string, cutoff time.Time, keep string) int {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	keep = absPath(keep)
	removed := 0
	for _, path := range matches {
		if keep != "" && absPath(path) == keep {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
