package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/led"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/notifications"
	"dashcamtransporter/internal/staging"
	"dashcamtransporter/internal/workflow"
)

// Daemon runs the transfer loop with its helpers. The single-instance lock is
// held separately by InstanceLock so it can be taken before settings are
// complete.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	history  *history.Store
	led      *led.Controller
	notifier notifications.Service

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	Workflow    workflow.StatusSummary
	StagedFiles int
	StagedBytes int64
	Totals      history.Totals
	HistoryPath string
	LEDActive   bool
}

// New constructs a daemon with initialized dependencies. store and indicator
// may be nil.
func New(cfg *config.Config, logger *slog.Logger, wf *workflow.Manager, store *history.Store, indicator *led.Controller, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || wf == nil {
		return nil, errors.New("daemon requires config and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		workflow: wf,
		history:  store,
		led:      indicator,
		notifier: notifier,
	}, nil
}

// Start clears stale partial downloads and launches the transfer loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	result := staging.CleanStalePartials(ctx, d.cfg.LockedDir(), d.cfg.StalePartAge(), d.logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		d.logger.Info("stale partial download cleanup",
			logging.String(logging.FieldEventType, "stale_parts_removed"),
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	if d.led.Enabled() {
		d.workflow.State().Observe(d.led.Observe)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.led.Run(runCtx)
		}()
	}

	d.running.Store(true)
	d.logger.Info("dashcam transporter started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("locked_dir", d.cfg.LockedDir()),
	)
	return nil
}

// Stop halts the transfer loop.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.wg.Wait()
	d.running.Store(false)
	d.logger.Info("dashcam transporter stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:   d.running.Load(),
		PID:       os.Getpid(),
		Workflow:  d.workflow.Status(),
		LEDActive: d.led.Enabled(),
	}
	count, bytes, err := staging.Summary(d.cfg.LockedDir())
	if err != nil {
		d.logger.Warn("failed to summarize staging directory", logging.Error(err))
	}
	status.StagedFiles = count
	status.StagedBytes = bytes
	if d.history != nil {
		status.HistoryPath = d.history.Path()
		totals, err := d.history.Totals(ctx)
		if err != nil {
			d.logger.Warn("failed to read transfer totals", logging.Error(err))
		}
		status.Totals = totals
	}
	return status
}

// Recent returns the newest transfer history entries.
func (d *Daemon) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if d.history == nil {
		return nil, errors.New("transfer history unavailable")
	}
	return d.history.Recent(ctx, limit)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
