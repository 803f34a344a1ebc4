package wifi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"dashcamtransporter/internal/logging"
)

var (
	// ErrNetworkNotFound reports that the SSID was not visible in a scan.
	ErrNetworkNotFound = errors.New("network not found")
	// ErrAssociation reports that joining a visible network failed.
	ErrAssociation = errors.New("network association failed")
)

// commandTimeout bounds a single nmcli invocation.
const commandTimeout = 45 * time.Second

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// Option configures the client.
type Option func(*NMCLI)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *NMCLI) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// NMCLI drives the radio through NetworkManager's command line client.
type NMCLI struct {
	binary string
	iface  string
	exec   Executor
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

// New constructs an nmcli-backed radio. iface may be empty to let
// NetworkManager pick the wifi device.
func New(binary, iface string, logger *slog.Logger, opts ...Option) *NMCLI {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "nmcli"
	}
	c := &NMCLI{
		binary: binary,
		iface:  strings.TrimSpace(iface),
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(logger, "wifi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the SSID the radio is associated with, or "" when none.
func (c *NMCLI) Current(ctx context.Context) (string, error) {
	args := []string{"-t", "-f", "ACTIVE,SSID", "device", "wifi", "list"}
	args = c.withInterface(args)
	out, err := c.run(ctx, args...)
	if err != nil {
		return "", err
	}
	ssid := ""
	for _, line := range splitLines(out) {
		fields := splitTerse(line)
		if len(fields) >= 2 && fields[0] == "yes" {
			ssid = fields[1]
			break
		}
	}
	c.noteAssociation(ssid)
	return ssid, nil
}

// Scan returns the SSIDs currently visible, rescanning first.
func (c *NMCLI) Scan(ctx context.Context) ([]string, error) {
	args := []string{"-t", "-f", "SSID", "device", "wifi", "list", "--rescan", "yes"}
	args = c.withInterface(args)
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var ssids []string
	for _, line := range splitLines(out) {
		fields := splitTerse(line)
		if len(fields) == 0 || fields[0] == "" {
			continue
		}
		if _, dup := seen[fields[0]]; dup {
			continue
		}
		seen[fields[0]] = struct{}{}
		ssids = append(ssids, fields[0])
	}
	return ssids, nil
}

// Connect scans for ssid and joins it. An invisible network yields
// ErrNetworkNotFound without attempting association. A failed scan does not
// prevent the attempt.
func (c *NMCLI) Connect(ctx context.Context, ssid, password string) error {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" {
		return fmt.Errorf("%w: empty ssid", ErrAssociation)
	}
	visible, err := c.Scan(ctx)
	found := err != nil
	if err != nil {
		c.logger.Debug("scan failed, attempting association anyway", logging.String("ssid", ssid), logging.Error(err))
	}
	for _, candidate := range visible {
		if candidate == ssid {
			found = true
			break
		}
	}
	if !found {
		c.logger.Debug("network not visible", logging.String("ssid", ssid))
		return fmt.Errorf("%w: %s", ErrNetworkNotFound, ssid)
	}

	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = c.withInterface(args)
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAssociation, ssid, err)
	}
	c.noteAssociation(ssid)
	return nil
}

// Disconnect drops the current association on the wifi device.
func (c *NMCLI) Disconnect(ctx context.Context) error {
	iface := c.iface
	if iface == "" {
		detected, err := c.wifiDevice(ctx)
		if err != nil {
			return err
		}
		iface = detected
	}
	if _, err := c.run(ctx, "device", "disconnect", iface); err != nil {
		return err
	}
	c.noteAssociation("")
	return nil
}

func (c *NMCLI) wifiDevice(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "-t", "-f", "DEVICE,TYPE", "device")
	if err != nil {
		return "", err
	}
	for _, line := range splitLines(out) {
		fields := splitTerse(line)
		if len(fields) >= 2 && fields[1] == "wifi" {
			return fields[0], nil
		}
	}
	return "", errors.New("no wifi device found")
}

// noteAssociation logs association changes once per transition.
func (c *NMCLI) noteAssociation(ssid string) {
	c.mu.Lock()
	previous := c.last
	c.last = ssid
	c.mu.Unlock()
	if previous == ssid {
		return
	}
	if ssid == "" {
		c.logger.Info("wifi disassociated",
			logging.String(logging.FieldEventType, "wifi_disassociated"),
			logging.String("previous_ssid", previous),
		)
		return
	}
	c.logger.Info("wifi associated",
		logging.String(logging.FieldEventType, "wifi_associated"),
		logging.String("ssid", ssid),
	)
}

func (c *NMCLI) withInterface(args []string) []string {
	if c.iface == "" {
		return args
	}
	return append(args, "ifname", c.iface)
}

func (c *NMCLI) run(ctx context.Context, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	out, err := c.exec.Output(runCtx, c.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("nmcli %s: %w", args[0], err)
	}
	return out, nil
}

// splitTerse splits one line of nmcli terse output, honouring \: escapes.
func splitTerse(line string) []string {
	var fields []string
	var current strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}

func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
