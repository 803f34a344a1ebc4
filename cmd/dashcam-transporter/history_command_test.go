package main

import (
	"context"
	"strings"
	"testing"

	"dashcamtransporter/internal/history"
)

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	entries := []history.Entry{
		{PassID: "p1", Direction: history.DirectionDownload, File: "EVENT0001.MP4", SizeBytes: 4096, Outcome: history.OutcomeSuccess},
		{PassID: "p2", Direction: history.DirectionUpload, File: "EVENT0001.MP4", Target: "WebDAV", Outcome: history.OutcomeFailed,
			ErrorKind: "UPLOAD_FAILURE", ErrorMessage: "upload failure: webdav: 507 insufficient storage"},
	}
	for _, entry := range entries {
		if err := env.store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "EVENT0001.MP4")
	requireContains(t, out, "Download")
	requireContains(t, out, "4.0 KiB")
	requireContains(t, out, "UPLOAD_FAILURE")

	out, _, err = runCLI(t, []string{"history", "--failed", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history --failed: %v", err)
	}
	if strings.Count(out, "\"pass_id\"") != 1 {
		t.Fatalf("expected one failed entry, got %s", out)
	}
	requireContains(t, out, "\"target\": \"WebDAV\"")
}

func TestHistoryCommandEmptyAndInvalidLimit(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No transfers recorded")

	if _, _, err := runCLI(t, []string{"history", "--limit", "0"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("got %q", got)
	}
}
