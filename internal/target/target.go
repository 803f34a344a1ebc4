package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

// ErrVerify marks an upload whose remote copy does not match the local file.
var ErrVerify = errors.New("remote verification mismatch")

// LocalFile is a finished recording in the staging directory.
type LocalFile struct {
	Name string
	Path string
	Size int64
}

// Target is a configured upload destination.
type Target interface {
	Name() string
	Upload(ctx context.Context, file LocalFile) error
}

// NewTargets builds every enabled target in a stable order (SMB, WebDAV, S3).
func NewTargets(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]Target, error) {
	if cfg == nil {
		return nil, nil
	}
	logger = logging.NewComponentLogger(logger, "target")
	var targets []Target
	if cfg.SMB.Enabled {
		targets = append(targets, NewSMB(cfg.SMB, logger))
	}
	if cfg.WebDAV.Enabled {
		targets = append(targets, NewWebDAV(cfg.WebDAV, nil, logger))
	}
	if cfg.S3.Enabled {
		s3Target, err := NewS3(ctx, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 target: %w", err)
		}
		targets = append(targets, s3Target)
	}
	return targets, nil
}

// Names lists target names for logs and notifications.
func Names(targets []Target) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name())
	}
	return names
}

func verifySize(name string, expected, actual int64) error {
	if expected != actual {
		return fmt.Errorf("%w: %s expected %d bytes, remote has %d", ErrVerify, name, expected, actual)
	}
	return nil
}

// cleanRemotePath normalizes a storage path to slash-separated segments without
// leading or trailing separators.
func cleanRemotePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}

func lockedDir(storagePath string) string {
	base := cleanRemotePath(storagePath)
	if base == "" {
		base = "dashcam-transfer"
	}
	return base + "/" + config.LockedDirName
}
