package daemon

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

// Loader reads the configuration; config.Load satisfies it.
type Loader func(path string) (*config.Config, string, bool, error)

// WaitForSettings reloads the configuration every interval (or the configured
// retry interval when zero) until the network credentials are filled in. Parse and validation errors are returned
// immediately; missing settings are logged and waited out.
func WaitForSettings(ctx context.Context, path string, interval time.Duration, load Loader, logger *slog.Logger) (*config.Config, error) {
	if load == nil {
		load = config.Load
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	for {
		cfg, resolved, exists, err := load(path)
		if err != nil {
			return nil, err
		}
		missing := cfg.MissingRequired()
		if len(missing) == 0 {
			return cfg, nil
		}

		if !exists {
			logging.WarnWithContext(logger, "settings file not found", "settings_missing",
				logging.String("path", resolved),
				logging.String(logging.FieldErrorHint, "run dashcam-transporter config init and fill in the network credentials"),
				logging.String(logging.FieldImpact, "transfers wait until settings are complete"),
			)
		} else {
			logging.WarnWithContext(logger, "settings incomplete", "settings_incomplete",
				logging.String("path", resolved),
				logging.String("missing", strings.Join(missing, ", ")),
				logging.String(logging.FieldErrorHint, "fill in the missing keys; the file is re-read automatically"),
				logging.String(logging.FieldImpact, "transfers wait until settings are complete"),
			)
		}

		wait := interval
		if wait <= 0 {
			wait = cfg.SettingsRetryInterval()
		}
		if wait <= 0 {
			wait = 5 * time.Second
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
