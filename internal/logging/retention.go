package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneLogs deletes files in dir matching pattern whose modification time
// is older than maxAge, skipping keep. It returns the number removed.
// Failures to remove one file are logged and do not stop the sweep.
func PruneLogs(logger *slog.Logger, dir, pattern string, maxAge time.Duration, keep string) int {
	if dir == "" || maxAge <= 0 {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	keepAbs, _ := filepath.Abs(keep)
	cutoff := time.Now().Add(-maxAge)

	removed := 0
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil && abs == keepAbs {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log prune failed", "log_prune_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	return removed
}
