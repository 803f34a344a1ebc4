package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dashcamtransporter/internal/logging"
)

// CleanStaleResult contains the outcome of a stale partial cleanup.
type CleanStaleResult struct {
	Removed   []string
	Reclaimed int64
	Errors    []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

type stalePart struct {
	path string
	size int64
	age  time.Duration
}

// CleanStalePartials removes *.part files in dir last written more than
// maxAge ago. A non-positive maxAge disables the sweep and a missing dir is
// not an error.
func CleanStalePartials(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	dir = strings.TrimSpace(dir)
	if dir == "" || maxAge <= 0 {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	stale, errs := findStaleParts(dir, time.Now(), maxAge)
	result.Errors = errs
	for _, part := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := os.Remove(part.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: part.path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale partial download", "staging_cleanup_failed",
				logging.File(filepath.Base(part.path)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check download_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, part.path)
		result.Reclaimed += part.size
		logger.Info("removed stale partial download",
			logging.String(logging.FieldEventType, "staging_cleanup"),
			logging.File(filepath.Base(part.path)),
			logging.Bytes("size", part.size),
			logging.Duration("age", part.age.Round(time.Second)),
		)
	}
	return result
}

func findStaleParts(dir string, now time.Time, maxAge time.Duration) ([]stalePart, []CleanupError) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []CleanupError{{Path: dir, Error: err}}
	}

	var (
		stale []stalePart
		errs  []CleanupError
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsPartial(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			errs = append(errs, CleanupError{Path: path, Error: err})
			continue
		}
		if age := now.Sub(info.ModTime()); age > maxAge {
			stale = append(stale, stalePart{path: path, size: info.Size(), age: age})
		}
	}
	return stale, errs
}
