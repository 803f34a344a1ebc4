package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dashcamtransporter/internal/config"
)

// ConfigOption adjusts a config built by NewConfig before its directories are
// created.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns complete settings rooted in a fresh temp directory: both
// networks have credentials, no upload target is enabled and the LED is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DownloadDir: filepath.Join(base, "videodownload"),
		LogDir:      filepath.Join(base, "logs"),
		StateDir:    filepath.Join(base, "state"),
	}
	cfg.Dashcam.SSID, cfg.Dashcam.Password = "VIOFO-TEST", "12345678"
	cfg.Home.SSID, cfg.Home.Password = "home-test", "secret"
	cfg.LED.Enabled = false

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadDir)
}

// WithModel selects the dashcam model.
func WithModel(model string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Dashcam.Model = model
	}
}

// WithWebDAV enables the WebDAV target against url with fixed credentials.
func WithWebDAV(url string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.WebDAV = config.WebDAV{Enabled: true, URL: url, Username: "user", Password: "pass", StoragePath: cfg.WebDAV.StoragePath}
	}
}

// WithStubbedBinaries puts do-nothing executables for names (nmcli when
// empty) first on PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"nmcli"}
	}
	return func(t testing.TB, base string, cfg *config.Config) {
		for _, name := range names {
			StubBinary(t, base, name, "exit 0")
		}
	}
}

// StubBinary writes a shell script named name into base/bin, prepends that
// directory to PATH and returns the script path.
func StubBinary(t testing.TB, base, name, body string) string {
	t.Helper()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	path := filepath.Join(binDir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	current := os.Getenv("PATH")
	if dirs := filepath.SplitList(current); len(dirs) == 0 || dirs[0] != binDir {
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
	}
	return path
}
