package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func TestExecuteReportsErrorsWithPrefix(t *testing.T) {
	var stderr bytes.Buffer
	if code := execute(context.Background(), []string{"no-such-command"}, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(stderr.String(), "dashcam-transporter: ") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestExecuteSucceedsForConfigInit(t *testing.T) {
	isolateConfigEnv(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	var stderr bytes.Buffer
	if code := execute(context.Background(), []string{"config", "init", "--path", path}, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, stderr.String())
	}
}

func TestDialErrorHints(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("dial: %w", syscall.ENOENT), "dashcam-transporter run"},
		{fmt.Errorf("dial: %w", syscall.ENOENT), "socket not found"},
		{fmt.Errorf("dial: %w", syscall.ECONNREFUSED), "nothing is listening"},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		got := dialError(tc.err, "/run/t.sock").Error()
		if !strings.Contains(got, "/run/t.sock") || !strings.Contains(got, tc.want) {
			t.Fatalf("dialError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSocketFlagOverridesSettings(t *testing.T) {
	ctx := &commandContext{socketFlag: " /tmp/custom.sock "}
	if got := ctx.socketPath(); got != "/tmp/custom.sock" {
		t.Fatalf("got %q", got)
	}
}
