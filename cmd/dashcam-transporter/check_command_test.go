package main

import (
	"strings"
	"testing"
)

func TestCheckCommandReportsToolsAndFailures(t *testing.T) {
	_, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, []string{"check"}, "", configPath)
	if err == nil || !strings.HasSuffix(err.Error(), "checks failed") {
		t.Fatalf("expected failing checks without an upload target, got %v", err)
	}
	requireContains(t, out, "Preflight")
	requireContains(t, out, "Upload targets")
	requireContains(t, out, "System Tools")
	requireContains(t, out, "nmcli")
}
