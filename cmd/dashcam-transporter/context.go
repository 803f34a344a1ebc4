package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/ipc"
)

// commandContext carries the global flags and the lazily loaded settings
// shared by every subcommand of one invocation.
type commandContext struct {
	socketFlag string
	configFlag string

	cfg    *config.Config
	cfgErr error
	loaded bool
}

func (c *commandContext) configPath() string {
	return strings.TrimSpace(c.configFlag)
}

// ensureConfig loads settings once per invocation and creates the working
// directories they name.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.loaded {
		return c.cfg, c.cfgErr
	}
	c.loaded = true
	cfg, _, _, err := config.Load(c.configPath())
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	if err != nil {
		c.cfgErr = err
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// socketPath resolves --socket, then the state directory from settings, then
// a temp-dir fallback when settings cannot be read.
func (c *commandContext) socketPath() string {
	if socket := strings.TrimSpace(c.socketFlag); socket != "" {
		return socket
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.SocketPath()
	}
	return filepath.Join(os.TempDir(), "dashcam-transporter.sock")
}

// withClient dials the daemon and hands the connection to fn, closing it
// afterwards. Dial failures carry an operator hint.
func (c *commandContext) withClient(ctx context.Context, fn func(context.Context, *ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(ctx, socket)
	if err != nil {
		return dialError(err, socket)
	}
	defer client.Close()
	return fn(ctx, client)
}

func dialError(err error, socket string) error {
	var hint string
	switch {
	case errors.Is(err, syscall.ENOENT), errors.Is(err, os.ErrNotExist):
		hint = "socket not found; is the transporter running? start it with `dashcam-transporter run`"
	case errors.Is(err, syscall.ECONNREFUSED):
		hint = "the socket exists but nothing is listening; restart the transporter"
	case errors.Is(err, syscall.EACCES):
		hint = "permission denied; run as the transporter's service user"
	default:
		return fmt.Errorf("connect to transporter at %s: %w", socket, err)
	}
	return fmt.Errorf("connect to transporter at %s: %s", socket, hint)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
