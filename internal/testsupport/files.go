package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/staging"
)

// WriteFile creates path with size bytes of filler, creating parent
// directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteStagedFile writes a recording of size bytes into the locked staging
// directory of cfg and returns its path.
func WriteStagedFile(t testing.TB, cfg *config.Config, name string, size int64) string {
	t.Helper()
	path := filepath.Join(cfg.LockedDir(), name)
	WriteFile(t, path, size)
	return path
}

// WritePartial leaves an interrupted download for name in the staging
// directory, last modified age ago, and returns the partial file's path.
func WritePartial(t testing.TB, cfg *config.Config, name string, age time.Duration) string {
	t.Helper()
	path := staging.PartPath(filepath.Join(cfg.LockedDir(), name))
	WriteFile(t, path, 10)
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatalf("age %s: %v", path, err)
		}
	}
	return path
}
