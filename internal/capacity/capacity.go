// Package capacity guards the staging volume against running out of space
// while recordings are downloaded.
package capacity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultSafetyMargin is the reserve kept free for the host OS.
const DefaultSafetyMargin int64 = 100 * 1024 * 1024

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (free uint64, err error)

// Guard answers whether a file of a given size still fits on the volume
// holding dir.
type Guard struct {
	dir    string
	margin int64
	statfs statfsFunc
}

// NewGuard builds a guard for the volume containing dir. A negative margin is
// treated as zero.
func NewGuard(dir string, margin int64) *Guard {
	if margin < 0 {
		margin = 0
	}
	return &Guard{dir: dir, margin: margin, statfs: realStatfs}
}

// Margin returns the configured safety reserve in bytes.
func (g *Guard) Margin() int64 {
	return g.margin
}

// FreeBytes reports the bytes available to unprivileged writers.
func (g *Guard) FreeBytes() (uint64, error) {
	free, err := g.statfs(g.dir)
	if err != nil {
		return 0, fmt.Errorf("capacity: statfs %s: %w", g.dir, err)
	}
	return free, nil
}

// HasCapacity reports whether requested bytes can be written while keeping the
// safety margin free. Unknown or non-positive sizes are not evaluated and pass.
func (g *Guard) HasCapacity(requested int64) (bool, error) {
	if requested <= 0 {
		return true, nil
	}
	free, err := g.FreeBytes()
	if err != nil {
		return false, err
	}
	return Fits(free, requested, g.margin), nil
}

// Fits returns true iff free - requested - margin > 0.
func Fits(free uint64, requested, margin int64) bool {
	if requested < 0 {
		requested = 0
	}
	if margin < 0 {
		margin = 0
	}
	need := uint64(requested) + uint64(margin)
	return free > need
}

func realStatfs(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
