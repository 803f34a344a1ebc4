package led

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/transfer"
)

// BlinkInterval is the LED update period. Idle blinks at this rate; an
// active transfer holds the LED on.
const BlinkInterval = 500 * time.Millisecond

const cpuInfoPath = "/proc/cpuinfo"

// piModels are the SoC identifiers that mark a Raspberry Pi in /proc/cpuinfo.
var piModels = []string{
	"BCM2708",
	"BCM2709",
	"BCM2710",
	"BCM2711",
	"BCM2712",
	"BCM2835",
	"BCM2836",
	"BCM2837",
	"BCM2837B0",
}

// Controller drives the board status LEDs through sysfs.
type Controller struct {
	paths     []string
	enabled   bool
	writeFile func(path string, data []byte) error
	logger    *slog.Logger

	mu        sync.Mutex
	operation transfer.Operation
	on        bool
}

// New builds a controller for the LED sysfs directories in paths. The LEDs
// are only driven when enabled is true and the host is a Raspberry Pi.
func New(paths []string, enabled bool, logger *slog.Logger) *Controller {
	logger = logging.NewComponentLogger(logger, "led")
	active := enabled && IsRaspberryPi(cpuInfoPath)
	if enabled && !active {
		logger.Debug("status led disabled; host is not a raspberry pi")
	}
	return &Controller{
		paths:     append([]string(nil), paths...),
		enabled:   active,
		writeFile: writeSysfs,
		logger:    logger,
		operation: transfer.OperationIdle,
	}
}

// IsRaspberryPi reports whether the cpuinfo file at path names a Pi SoC.
func IsRaspberryPi(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	info := string(data)
	for _, model := range piModels {
		if strings.Contains(info, model) {
			return true
		}
	}
	return false
}

// Enabled reports whether the controller writes to sysfs.
func (c *Controller) Enabled() bool {
	return c != nil && c.enabled
}

// SetOperation updates the pattern shown on the next tick.
func (c *Controller) SetOperation(op transfer.Operation) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.operation = op
	c.mu.Unlock()
}

// Observe adapts the controller to transfer.State observers.
func (c *Controller) Observe(snap transfer.Snapshot) {
	c.SetOperation(snap.Operation)
}

// Run takes manual control of the LEDs and updates them until ctx ends.
func (c *Controller) Run(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	for _, dir := range c.paths {
		if err := c.writeFile(filepath.Join(dir, "trigger"), []byte("none")); err != nil {
			logging.WarnWithContext(c.logger, "led trigger setup failed", "led_setup_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run as root or grant write access to /sys/class/leds"),
				logging.String(logging.FieldImpact, "status led will not reflect transfer state"),
			)
		}
	}
	c.logger.Info("status led initialized", logging.Int("leds", len(c.paths)))

	ticker := time.NewTicker(BlinkInterval)
	defer ticker.Stop()
	for {
		c.tick()
		select {
		case <-ctx.Done():
			c.set(false)
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) tick() {
	c.mu.Lock()
	if c.operation == transfer.OperationIdle || c.operation == "" {
		c.on = !c.on
	} else {
		c.on = true
	}
	on := c.on
	c.mu.Unlock()
	c.set(on)
}

func (c *Controller) set(on bool) {
	value := []byte("0")
	if on {
		value = []byte("1")
	}
	for _, dir := range c.paths {
		if err := c.writeFile(filepath.Join(dir, "brightness"), value); err != nil {
			c.logger.Debug("led brightness write failed", logging.String("path", dir), logging.Error(err))
		}
	}
}

func writeSysfs(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
