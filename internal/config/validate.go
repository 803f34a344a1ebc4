package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Missing network credentials are
// not validation errors; they are reported by MissingRequired so the daemon can
// wait for the operator instead of exiting.
func (c *Config) Validate() error {
	if err := c.validateDashcam(); err != nil {
		return err
	}
	if err := c.validateTargets(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDashcam() error {
	switch c.Dashcam.Model {
	case "", ModelVIOFOA199Mini, ModelVIOFO, ModelGarminVirb:
		return nil
	default:
		return fmt.Errorf("dashcam.model %q is not supported (expected %s, %s or %s)",
			c.Dashcam.Model, ModelVIOFOA199Mini, ModelVIOFO, ModelGarminVirb)
	}
}

func (c *Config) validateTargets() error {
	if c.SMB.Enabled && c.SMB.Host == "" {
		return errors.New("smb.host must be set when smb.enabled is true")
	}
	if c.WebDAV.Enabled {
		if c.WebDAV.URL == "" {
			return errors.New("webdav.url must be set when webdav.enabled is true")
		}
		if strings.TrimSpace(c.WebDAV.Username) == "" {
			return errors.New("webdav.username must be set when webdav.enabled is true")
		}
		if strings.TrimSpace(c.WebDAV.Password) == "" {
			return errors.New("webdav.password must be set when webdav.enabled is true")
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket must be set when s3.enabled is true")
		}
		if strings.TrimSpace(c.S3.AccessKey) == "" || strings.TrimSpace(c.S3.SecretKey) == "" {
			return errors.New("s3.access_key and s3.secret_key must be set when s3.enabled is true")
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.poll_interval":           c.Workflow.PollInterval,
		"workflow.settings_retry_interval": c.Workflow.SettingsRetryInterval,
		"notifications.request_timeout":    c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.SafetyMarginMiB < 0 {
		return errors.New("workflow.safety_margin_mib must not be negative")
	}
	if c.Workflow.StalePartHours < 0 {
		return errors.New("workflow.stale_part_hours must not be negative")
	}
	if c.Workflow.HistoryRetentionDays < 0 {
		return errors.New("workflow.history_retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q is not supported (expected console, json or auto)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "silent":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
