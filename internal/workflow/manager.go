package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/transfer"
)

// Network is the radio capability the arbiter needs.
type Network interface {
	Current(ctx context.Context) (string, error)
	Connect(ctx context.Context, ssid, password string) error
}

// Pass is one download or upload pass.
type Pass interface {
	RunPass(ctx context.Context) (transfer.PassResult, error)
}

// Credentials identify one of the two networks.
type Credentials struct {
	SSID     string
	Password string
}

// Manager alternates the radio between the dashcam and home networks and runs
// the matching pass when associated.
type Manager struct {
	network      Network
	dashcam      Credentials
	home         Credentials
	download     Pass
	upload       Pass
	state        *transfer.State
	pollInterval time.Duration
	logger       *slog.Logger

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastErr    error
	lastAction Action
	lastTickAt time.Time
	associated string
	ticks      int64
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPollInterval overrides the delay between ticks.
func WithPollInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pollInterval = interval
	}
}

// NewManager constructs an arbiter for the networks named in cfg.
func NewManager(cfg *config.Config, network Network, download, upload Pass, state *transfer.State, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if state == nil {
		state = transfer.NewState()
	}
	m := &Manager{
		network:      network,
		download:     download,
		upload:       upload,
		state:        state,
		pollInterval: 5 * time.Second,
		logger:       logging.NewComponentLogger(logger, "workflow"),
	}
	if cfg != nil {
		m.dashcam = Credentials{SSID: cfg.Dashcam.SSID, Password: cfg.Dashcam.Password}
		m.home = Credentials{SSID: cfg.Home.SSID, Password: cfg.Home.Password}
		m.pollInterval = cfg.PollInterval()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State exposes the shared transfer flags.
func (m *Manager) State() *transfer.State {
	return m.state
}
