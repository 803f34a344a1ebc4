package main

import (
	"strings"
	"testing"
)

func TestWiFiStatusWithIdleRadio(t *testing.T) {
	_, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, []string{"wifi", "status"}, "", configPath)
	if err != nil {
		t.Fatalf("wifi status: %v", err)
	}
	requireContains(t, out, "Associated:")
	requireContains(t, out, "none")
	requireContains(t, out, "VIOFO-TEST (out of range)")
	requireContains(t, out, "home-test (out of range)")
}

func TestWiFiConnectRejectsUnknownAndInvisibleNetworks(t *testing.T) {
	_, configPath := newCLIConfig(t)

	_, _, err := runCLI(t, []string{"wifi", "connect", "office"}, "", configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown network") {
		t.Fatalf("expected unknown network error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"wifi", "connect", "dashcam"}, "", configPath)
	if err == nil || !strings.Contains(err.Error(), "not in range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestNetworkVisibilityLines(t *testing.T) {
	cfg, _ := newCLIConfig(t)
	cfg.Home.SSID = ""

	lines := networkVisibilityLines(cfg, "VIOFO-TEST", []string{"VIOFO-TEST", "neighbor"}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] VIOFO-TEST (associated)") {
		t.Fatalf("unexpected dashcam line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] not configured") {
		t.Fatalf("unexpected home line %q", lines[1])
	}
}
