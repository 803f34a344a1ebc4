package preflight

import (
	"context"

	"dashcamtransporter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Target checks only run for enabled targets.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckSettings(cfg))
	results = append(results, CheckDirectoryAccess("Download directory", cfg.LockedDir()))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckFreeSpace(cfg.LockedDir(), cfg.SafetyMarginBytes()))

	if cfg.SMB.Enabled {
		results = append(results, CheckSMB(ctx, cfg.SMB.Host))
	}
	if cfg.WebDAV.Enabled {
		results = append(results, CheckWebDAV(ctx, cfg.WebDAV.URL, cfg.WebDAV.Username, cfg.WebDAV.Password))
	}
	if cfg.S3.Enabled {
		results = append(results, CheckS3(ctx, cfg.S3.Endpoint, cfg.S3.Bucket))
	}
	if !cfg.SMB.Enabled && !cfg.WebDAV.Enabled && !cfg.S3.Enabled {
		results = append(results, Result{Name: "Upload targets", Detail: "no target enabled; recordings stay on local disk"})
	}

	return results
}
