package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/daemon"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/ipc"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/testsupport"
	"dashcamtransporter/internal/transfer"
	"dashcamtransporter/internal/workflow"
)

type offlineNetwork struct{}

func (offlineNetwork) Current(context.Context) (string, error) { return "", nil }
func (offlineNetwork) Connect(context.Context, string, string) error {
	return errors.New("network not found")
}

type noopPass struct{}

func (noopPass) RunPass(context.Context) (transfer.PassResult, error) {
	return transfer.PassResult{}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

func isolateConfigEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv(config.EnvSettingsPath, filepath.Join(dir, "absent.toml"))
	t.Setenv(config.EnvFile, filepath.Join(dir, "absent.env"))
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvVirbHost, "")
}

// newCLIConfig writes a complete settings file and returns it with its path.
func newCLIConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	isolateConfigEnv(t, base)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return cfg, configPath
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg, configPath := newCLIConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	logger := logging.NewNop()
	state := transfer.NewState()
	mgr := workflow.NewManager(cfg, offlineNetwork{}, noopPass{}, noopPass{}, state, logger,
		workflow.WithPollInterval(time.Hour))
	d, err := daemon.New(cfg, logger, mgr, store, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}

	socketPath := filepath.Join(cfg.Paths.StateDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		d.Stop()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
