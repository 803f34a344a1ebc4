package workflow

import (
	"time"

	"dashcamtransporter/internal/transfer"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	Associated string
	LastAction Action
	LastTickAt time.Time
	Ticks      int64
	LastError  string
	Transfer   transfer.Snapshot
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:    m.running,
		Associated: m.associated,
		LastAction: m.lastAction,
		LastTickAt: m.lastTickAt,
		Ticks:      m.ticks,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()
	summary.Transfer = m.state.Snapshot()
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
