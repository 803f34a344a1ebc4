package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// EnvSettingsPath points at an alternative settings file.
	EnvSettingsPath = "DASHCAM_TRANSPORTER_SETTINGS"
	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "DASHCAM_TRANSPORTER_LOG_LEVEL"
	// EnvVirbHost overrides dashcam.host for Garmin VIRB cameras.
	EnvVirbHost = "DASHCAM_TRANSPORTER_VIRB_HOST"
	// EnvFile points at an optional dotenv file loaded before overrides.
	EnvFile = "DASHCAM_TRANSPORTER_ENV_FILE"
)

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	StateDir    string `toml:"state_dir"`
}

// Dashcam describes the camera access point and model.
type Dashcam struct {
	SSID     string `toml:"ssid"`
	Password string `toml:"password"`
	Model    string `toml:"model"`
	Host     string `toml:"host"`
}

// Home describes the home network used for uploads.
type Home struct {
	SSID     string `toml:"ssid"`
	Password string `toml:"password"`
}

// SMB contains configuration for the SMB file share target.
type SMB struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Share       string `toml:"share"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	Domain      string `toml:"domain"`
	StoragePath string `toml:"storage_path"`
}

// WebDAV contains configuration for the WebDAV (Nextcloud) target.
type WebDAV struct {
	Enabled     bool   `toml:"enabled"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	StoragePath string `toml:"storage_path"`
}

// S3 contains configuration for the S3-compatible object storage target.
type S3 struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Prefix    string `toml:"prefix"`
	PathStyle bool   `toml:"path_style"`
}

// WiFi contains configuration for the radio helper.
type WiFi struct {
	Interface   string `toml:"interface"`
	NmcliBinary string `toml:"nmcli_binary"`
}

// LED contains configuration for the status LED.
type LED struct {
	Enabled bool     `toml:"enabled"`
	Paths   []string `toml:"paths"`
}

// Workflow contains configuration for loop timing and disk reserve.
type Workflow struct {
	PollInterval          int `toml:"poll_interval"`
	SafetyMarginMiB       int `toml:"safety_margin_mib"`
	SettingsRetryInterval int `toml:"settings_retry_interval"`
	StalePartHours        int `toml:"stale_part_hours"`
	HistoryRetentionDays  int `toml:"history_retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Download       bool   `toml:"download"`
	Upload         bool   `toml:"upload"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the transporter.
//
// Configuration sections by subsystem:
//   - Paths: download, log and state directories
//   - Dashcam / Home: the two networks the radio alternates between
//   - SMB / WebDAV / S3: home upload targets, each independently enabled
//   - WiFi: radio helper binary and interface
//   - LED: status indication on Raspberry Pi boards
//   - Workflow: poll cadence, disk safety margin and cleanup windows
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dashcam       Dashcam       `toml:"dashcam"`
	Home          Home          `toml:"home"`
	SMB           SMB           `toml:"smb"`
	WebDAV        WebDAV        `toml:"webdav"`
	S3            S3            `toml:"s3"`
	WiFi          WiFi          `toml:"wifi"`
	LED           LED           `toml:"led"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults are used
// and MissingRequired reports what still has to be filled in.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	loadEnvFile()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile merges an optional dotenv file into the process environment.
// Variables already present in the environment win.
func loadEnvFile() {
	path := strings.TrimSpace(os.Getenv(EnvFile))
	if path == "" {
		path = defaultEnvFile
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	_ = godotenv.Load(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvSettingsPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation, including
// the locked/ staging directory under the download root.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.LockedDir(), c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MissingRequired lists the settings keys that must be provided before the
// transfer loop can start.
func (c *Config) MissingRequired() []string {
	required := []struct {
		key   string
		value string
	}{
		{"home.ssid", c.Home.SSID},
		{"home.password", c.Home.Password},
		{"dashcam.ssid", c.Dashcam.SSID},
		{"dashcam.password", c.Dashcam.Password},
		{"dashcam.model", c.Dashcam.Model},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	return missing
}

// LockedDir returns the staging directory shared by the download and upload passes.
func (c *Config) LockedDir() string {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.DownloadDir, LockedDirName)
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "dashcam-transporter.lock")
}

// SocketPath returns the IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "dashcam-transporter.sock")
}

// HistoryPath returns the transfer journal database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// PollInterval returns the delay between main loop iterations.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollInterval) * time.Second
}

// SettingsRetryInterval returns the delay between settings reloads while incomplete.
func (c *Config) SettingsRetryInterval() time.Duration {
	return time.Duration(c.Workflow.SettingsRetryInterval) * time.Second
}

// SafetyMarginBytes returns the free-space reserve kept for the host OS.
func (c *Config) SafetyMarginBytes() int64 {
	return int64(c.Workflow.SafetyMarginMiB) * 1024 * 1024
}

// StalePartAge returns the age after which leftover .part files are removed at startup.
func (c *Config) StalePartAge() time.Duration {
	return time.Duration(c.Workflow.StalePartHours) * time.Hour
}

// HistoryRetention returns how long transfer journal rows are kept. Zero
// disables pruning.
func (c *Config) HistoryRetention() time.Duration {
	if c.Workflow.HistoryRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.Workflow.HistoryRetentionDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
