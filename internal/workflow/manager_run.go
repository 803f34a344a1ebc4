package workflow

import (
	"context"
	"errors"
	"time"

	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/transfer"
)

// Action is what a single tick decided to do.
type Action string

const (
	ActionDownload    Action = "download"
	ActionUpload      Action = "upload"
	ActionJoinDashcam Action = "join_dashcam"
	ActionJoinHome    Action = "join_home"
	ActionSeeking     Action = "seeking"
	ActionIdle        Action = "idle"
)

// Start begins the poll loop in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.network == nil || m.download == nil || m.upload == nil {
		m.mu.Unlock()
		return errors.New("workflow passes not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.Run(runCtx)
	}()
	return nil
}

// Stop terminates the poll loop and waits for the current tick to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Run waits one poll interval, ticks, and repeats until ctx is done. Pass
// failures are logged and never end the loop.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Info("transfer loop started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Duration("poll_interval", m.pollInterval),
	)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("transfer loop stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
			return
		case <-time.After(m.pollInterval):
		}
		m.Tick(ctx)
	}
}

// Tick evaluates the arbiter once:
//   - on the dashcam network with downloads pending, run a download pass
//   - on the home network with uploads pending, run an upload pass
//   - otherwise try to join the dashcam network, then the home network
func (m *Manager) Tick(ctx context.Context) Action {
	current, err := m.network.Current(ctx)
	if err != nil {
		m.logger.Debug("association check failed", logging.Error(err))
		current = ""
	}
	snap := m.state.Snapshot()

	var action Action
	switch {
	case m.onNetwork(current, m.dashcam) && !snap.DashcamDone:
		action = ActionDownload
		m.runPass(ctx, action, m.download)
	case m.onNetwork(current, m.home) && !snap.HomeDone:
		action = ActionUpload
		m.runPass(ctx, action, m.upload)
	default:
		action = m.seek(ctx, current, snap)
	}

	m.mu.Lock()
	m.lastAction = action
	m.lastTickAt = time.Now()
	m.associated = current
	m.ticks++
	m.mu.Unlock()
	return action
}

func (m *Manager) seek(ctx context.Context, current string, snap transfer.Snapshot) Action {
	if snap.DashcamDone && snap.HomeDone {
		return ActionIdle
	}
	if !snap.DashcamDone && !m.onNetwork(current, m.dashcam) {
		if m.join(ctx, "dashcam", m.dashcam) {
			return ActionJoinDashcam
		}
	}
	if !snap.HomeDone && !m.onNetwork(current, m.home) {
		if m.join(ctx, "home", m.home) {
			return ActionJoinHome
		}
	}
	return ActionSeeking
}

// join attempts an association and swallows any failure.
func (m *Manager) join(ctx context.Context, role string, creds Credentials) bool {
	if creds.SSID == "" {
		return false
	}
	if err := m.network.Connect(ctx, creds.SSID, creds.Password); err != nil {
		m.logger.Debug("network association failed",
			logging.String("network", role),
			logging.String("ssid", creds.SSID),
			logging.ErrorKind("NETWORK_ASSOCIATION_FAILURE"),
			logging.Error(err),
		)
		return false
	}
	return true
}

func (m *Manager) runPass(ctx context.Context, action Action, pass Pass) {
	result, err := pass.RunPass(ctx)
	m.setLastError(err)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.ErrorWithContext(m.logger, "transfer pass failed", "pass_failed",
		logging.String("action", string(action)),
		logging.String(logging.FieldPassID, result.PassID),
		logging.ErrorKind(transfer.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, passHint(err)),
	)
}

func (m *Manager) onNetwork(current string, creds Credentials) bool {
	return creds.SSID != "" && current == creds.SSID
}

func passHint(err error) string {
	switch {
	case errors.Is(err, transfer.ErrCapacityExceeded):
		return "free space in the download directory or wait for the next upload"
	case errors.Is(err, transfer.ErrListing), errors.Is(err, transfer.ErrStream), errors.Is(err, transfer.ErrRemoteDelete):
		return "check the dashcam connection; the pass retries on the next tick"
	case errors.Is(err, transfer.ErrUpload), errors.Is(err, transfer.ErrUploadVerify):
		return "check upload target reachability and credentials"
	default:
		return "check logs for details; the pass retries on the next tick"
	}
}
