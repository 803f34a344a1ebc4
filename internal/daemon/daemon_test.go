package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/daemon"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/testsupport"
	"dashcamtransporter/internal/transfer"
	"dashcamtransporter/internal/workflow"
)

type idleNetwork struct{}

func (idleNetwork) Current(context.Context) (string, error) { return "", nil }
func (idleNetwork) Connect(context.Context, string, string) error {
	return errors.New("network not found")
}

type noopPass struct{}

func (noopPass) RunPass(context.Context) (transfer.PassResult, error) {
	return transfer.PassResult{}, nil
}

func newDaemon(t *testing.T, cfg *config.Config, store *history.Store) *daemon.Daemon {
	t.Helper()
	mgr := workflow.NewManager(cfg, idleNetwork{}, noopPass{}, noopPass{}, nil, logging.NewNop(),
		workflow.WithPollInterval(time.Millisecond))
	d, err := daemon.New(cfg, logging.NewNop(), mgr, store, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonStatusReportsStagingAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	testsupport.WriteStagedFile(t, cfg, "EVENT0001.MP4", 64)
	testsupport.WriteStagedFile(t, cfg, "EVENT0002.MP4.part", 10)
	if err := store.Record(context.Background(), history.Entry{
		Direction: history.DirectionDownload,
		File:      "EVENT0001.MP4",
		SizeBytes: 64,
		Outcome:   history.OutcomeSuccess,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	d := newDaemon(t, cfg, store)

	status := d.Status(context.Background())
	if status.StagedFiles != 1 || status.StagedBytes != 64 {
		t.Fatalf("unexpected staging summary %d files %d bytes", status.StagedFiles, status.StagedBytes)
	}
	if status.Totals.Downloaded != 1 {
		t.Fatalf("unexpected totals %+v", status.Totals)
	}
	if status.HistoryPath != cfg.HistoryPath() {
		t.Fatalf("unexpected history path %q", status.HistoryPath)
	}

	recent, err := d.Recent(context.Background(), 5)
	if err != nil || len(recent) != 1 {
		t.Fatalf("unexpected recent entries %v err=%v", recent, err)
	}
}

func TestDaemonStartRemovesStaleParts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StalePartHours = 1
	stale := testsupport.WritePartial(t, cfg, "OLD.MP4", 2*time.Hour)
	fresh := testsupport.WritePartial(t, cfg, "NEW.MP4", 0)
	d := newDaemon(t, cfg, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale part removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh part must survive: %v", err)
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg, nil)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent || message != "ntfy topic not configured" {
		t.Fatalf("unexpected result sent=%v message=%q err=%v", sent, message, err)
	}
}

func TestInstanceLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "transporter.lock")
	first, err := daemon.AcquireInstanceLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := daemon.AcquireInstanceLock(path); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := daemon.AcquireInstanceLock(path)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again.Release()
}

func TestWaitForSettingsRetriesUntilComplete(t *testing.T) {
	calls := 0
	load := func(string) (*config.Config, string, bool, error) {
		calls++
		cfg := config.Default()
		if calls >= 3 {
			cfg.Dashcam.SSID = "cam"
			cfg.Dashcam.Password = "pw"
			cfg.Home.SSID = "home"
			cfg.Home.Password = "pw"
		}
		return &cfg, "/tmp/settings.toml", calls > 1, nil
	}

	cfg, err := daemon.WaitForSettings(context.Background(), "", time.Millisecond, load, logging.NewNop())
	if err != nil {
		t.Fatalf("WaitForSettings: %v", err)
	}
	if calls != 3 || cfg.Home.SSID != "home" {
		t.Fatalf("unexpected result after %d calls: %+v", calls, cfg.Home)
	}
}

func TestWaitForSettingsStopsOnCancel(t *testing.T) {
	load := func(string) (*config.Config, string, bool, error) {
		cfg := config.Default()
		return &cfg, "", false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := daemon.WaitForSettings(ctx, "", time.Millisecond, load, logging.NewNop()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitForSettingsReturnsLoadErrors(t *testing.T) {
	boom := errors.New("parse config: bad toml")
	load := func(string) (*config.Config, string, bool, error) { return nil, "", false, boom }

	if _, err := daemon.WaitForSettings(context.Background(), "", time.Millisecond, load, nil); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}
