package transfer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dashcamtransporter/internal/transfer"
)

func TestStateObserversSeeChanges(t *testing.T) {
	state := transfer.NewState()
	var seen []transfer.Snapshot
	state.Observe(func(s transfer.Snapshot) { seen = append(seen, s) })

	state.SetDashcamDone(true)
	state.SetDashcamDone(true)
	state.SetHomeDone(true)

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications for 2 changes, got %d", len(seen))
	}
	if !seen[1].DashcamDone || !seen[1].HomeDone {
		t.Fatalf("unexpected final snapshot %+v", seen[1])
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{transfer.Wrap(transfer.ErrCapacityExceeded, "capacity", "x", nil), "CAPACITY_EXCEEDED"},
		{transfer.Wrap(transfer.ErrStream, "download", "x", errBoom), "STREAM_FAILURE"},
		{transfer.Wrap(transfer.ErrRename, "rename", "x", errBoom), "RENAME_FAILURE"},
		{transfer.Wrap(transfer.ErrRemoteDelete, "delete", "x", errBoom), "REMOTE_DELETE_FAILURE"},
		{transfer.Wrap(transfer.ErrUpload, "upload", "x", errBoom), "UPLOAD_FAILURE"},
		{transfer.Wrap(transfer.ErrUploadVerify, "upload", "x", errBoom), "UPLOAD_VERIFY_MISMATCH"},
		{fmt.Errorf("outer: %w", context.Canceled), "CANCELED"},
		{errors.New("plain"), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := transfer.Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := transfer.Wrap(transfer.ErrRename, "rename", "a.mp4", errBoom)
	if !errors.Is(err, errBoom) || !errors.Is(err, transfer.ErrRename) {
		t.Fatalf("expected both marker and cause, got %v", err)
	}
	if got := err.Error(); got != "rename failure: rename: a.mp4: boom" {
		t.Fatalf("unexpected message %q", got)
	}
}
