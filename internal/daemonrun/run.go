package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dashcamtransporter/internal/capacity"
	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/daemon"
	"dashcamtransporter/internal/dashcam"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/ipc"
	"dashcamtransporter/internal/led"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/notifications"
	"dashcamtransporter/internal/preflight"
	"dashcamtransporter/internal/target"
	"dashcamtransporter/internal/transfer"
	"dashcamtransporter/internal/wifi"
	"dashcamtransporter/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the transporter runtime loop and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, configPath string, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	initial, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bootstrap, err := logging.New(logging.Options{
		Level:       firstNonEmpty(opts.LogLevel, initial.Logging.Level),
		Format:      initial.Logging.Format,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock, err := daemon.AcquireInstanceLock(initial.LockPath())
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			logging.ErrorWithContext(bootstrap, "another transporter instance is running", "instance_lock_held",
				logging.String("lock_path", initial.LockPath()),
				logging.String(logging.FieldErrorHint, "stop the running instance or remove the stale service"),
			)
		}
		return err
	}
	defer lock.Release() //nolint:errcheck

	cfg, err := daemon.WaitForSettings(signalCtx, configPath, 0, config.Load, bootstrap)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			bootstrap.Info("shutdown requested while waiting for settings")
			return nil
		}
		return fmt.Errorf("load settings: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("dashcam-transporter-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       firstNonEmpty(opts.LogLevel, cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "dashcam-transporter-*.log", Exclude: []string{logPath}},
	)
	logDependencySnapshot(signalCtx, logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	store := openHistory(signalCtx, cfg, logger)

	notifier := notifications.NewService(cfg)
	targets, err := target.NewTargets(signalCtx, cfg, logger)
	if err != nil {
		store.Close() //nolint:errcheck
		return fmt.Errorf("configure upload targets: %w", err)
	}

	state := transfer.NewState()
	state.Observe(func(snap transfer.Snapshot) {
		logger.Debug("transfer state changed",
			logging.String(logging.FieldEventType, "transfer_state_changed"),
			logging.String("operation", string(snap.Operation)),
			logging.Bool("dashcam_done", snap.DashcamDone),
			logging.Bool("home_done", snap.HomeDone),
		)
	})

	passDeps := transfer.Deps{Notifier: notifier}
	if store != nil {
		passDeps.Journal = store
	}
	downloader := transfer.NewDownloader(
		dashcam.NewSource(cfg, logger),
		capacity.NewGuard(cfg.LockedDir(), cfg.SafetyMarginBytes()),
		cfg.LockedDir(), state, passDeps, logger,
	)
	uploader := transfer.NewUploader(targets, cfg.LockedDir(), state, passDeps, logger)

	radio := wifi.New(cfg.WiFi.NmcliBinary, cfg.WiFi.Interface, logger)
	manager := workflow.NewManager(cfg, radio, downloader, uploader, state, logger,
		workflow.WithPollInterval(cfg.PollInterval()))
	indicator := led.New(cfg.LED.Paths, cfg.LED.Enabled, logger)

	d, err := daemon.New(cfg, logger, manager, store, indicator, notifier)
	if err != nil {
		store.Close() //nolint:errcheck
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	logger.Info("transporter ready",
		logging.String(logging.FieldEventType, "transporter_ready"),
		logging.String("socket", cfg.SocketPath()),
		logging.String("targets", strings.Join(target.Names(targets), ",")),
		logging.Bool("led", indicator.Enabled()),
	)

	<-signalCtx.Done()
	logger.Info("dashcam transporter shutting down")
	return nil
}

// openHistory opens the transfer journal and prunes expired rows. A journal
// that cannot be opened disables history without stopping transfers.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "transfer history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.HistoryPath()),
			logging.String(logging.FieldImpact, "transfers continue without a journal"),
		)
		return nil
	}
	if retention := cfg.HistoryRetention(); retention > 0 {
		removed, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("failed to prune transfer history", logging.Error(err))
		} else if removed > 0 {
			logger.Info("pruned transfer history",
				logging.String(logging.FieldEventType, "history_pruned"),
				logging.Int64("removed", removed),
			)
		}
	}
	return store
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("dashcam_model", cfg.Dashcam.Model),
		logging.Bool("smb_enabled", cfg.SMB.Enabled),
		logging.Bool("webdav_enabled", cfg.WebDAV.Enabled),
		logging.Bool("s3_enabled", cfg.S3.Enabled),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	}
	for _, status := range preflight.CheckSystemDeps(ctx, cfg) {
		attrs = append(attrs,
			logging.Bool(status.Name+"_available", status.Available),
			logging.String(status.Name+"_binary", firstNonEmpty(status.Path, status.Command)),
		)
		if status.Version != "" {
			attrs = append(attrs, logging.String(status.Name+"_version", status.Version))
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

// logPreflight records readiness checks. Target probes are expected to fail
// while the radio is on the dashcam network, so failures are warnings only.
func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "preflight_check"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		}
		if result.Passed {
			logger.Debug("preflight check passed", logging.Args(attrs...)...)
			continue
		}
		logger.Warn("preflight check failed", logging.Args(attrs...)...)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
