package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"dashcamtransporter/internal/dashcam"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/transfer"
)

func newDownloader(t *testing.T, src *fakeSource, guard transfer.CapacityChecker, deps transfer.Deps) (*transfer.Downloader, *transfer.State, string) {
	t.Helper()
	locked := filepath.Join(t.TempDir(), "locked")
	state := transfer.NewState()
	return transfer.NewDownloader(src, guard, locked, state, deps, logging.NewNop()), state, locked
}

func hundredByteSource() *fakeSource {
	return &fakeSource{
		files:   []dashcam.RemoteFile{{Name: "EVENT0001.MP4", RemotePath: "/DCIM/RO/EVENT0001.MP4", Size: 100, SizeKnown: true}},
		content: map[string][]byte{"EVENT0001.MP4": bytes.Repeat([]byte("a"), 100)},
	}
}

func TestDownloadPassMovesAndDeletesRemote(t *testing.T) {
	src := hundredByteSource()
	guard := &fixedGuard{free: 1000, margin: 100}
	journal := &memJournal{}
	notifier := &countingNotifier{}
	d, state, locked := newDownloader(t, src, guard, transfer.Deps{Journal: journal, Notifier: notifier})

	result, err := d.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.Files != 1 || result.Bytes != 100 {
		t.Fatalf("unexpected result %+v", result)
	}
	info, err := os.Stat(filepath.Join(locked, "EVENT0001.MP4"))
	if err != nil || info.Size() != 100 {
		t.Fatalf("expected 100 byte staged file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(locked, "EVENT0001.MP4.part")); !os.IsNotExist(err) {
		t.Fatalf("expected part file removed, stat err=%v", err)
	}
	if src.deleteCount() != 1 {
		t.Fatalf("expected one remote delete, got %d", src.deleteCount())
	}
	if guard.calls != 1 {
		t.Fatalf("expected one capacity check, got %d", guard.calls)
	}
	snap := state.Snapshot()
	if !snap.DashcamDone || snap.Operation != transfer.OperationIdle {
		t.Fatalf("unexpected state %+v", snap)
	}
	if len(journal.entries) != 1 || journal.entries[0].Outcome != history.OutcomeSuccess {
		t.Fatalf("unexpected journal %+v", journal.entries)
	}
	if journal.entries[0].PassID != result.PassID || result.PassID == "" {
		t.Fatalf("journal pass id %q does not match %q", journal.entries[0].PassID, result.PassID)
	}
	if notifier.downloads != 1 {
		t.Fatalf("expected download notification, got %d", notifier.downloads)
	}
}

func TestDownloadPassTruncatedStreamIsIntegrityMismatch(t *testing.T) {
	src := hundredByteSource()
	src.content["EVENT0001.MP4"] = bytes.Repeat([]byte("a"), 50)
	journal := &memJournal{}
	d, state, locked := newDownloader(t, src, &fixedGuard{free: 1000, margin: 100}, transfer.Deps{Journal: journal})

	_, err := d.RunPass(context.Background())
	if !errors.Is(err, transfer.ErrIntegrityMismatch) {
		t.Fatalf("expected integrity mismatch, got %v", err)
	}
	if transfer.Kind(err) != "INTEGRITY_MISMATCH" {
		t.Fatalf("unexpected kind %q", transfer.Kind(err))
	}
	if _, err := os.Stat(filepath.Join(locked, "EVENT0001.MP4")); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt file deleted, stat err=%v", err)
	}
	if src.deleteCount() != 0 {
		t.Fatalf("remote delete must not run, got %d", src.deleteCount())
	}
	if state.DashcamDone() {
		t.Fatal("dashcam flag must stay false after a failed pass")
	}
	if state.Snapshot().LastError == "" {
		t.Fatal("expected last error recorded")
	}
	if len(journal.entries) != 1 || journal.entries[0].ErrorKind != "INTEGRITY_MISMATCH" {
		t.Fatalf("unexpected journal %+v", journal.entries)
	}
}

func TestDownloadPassStreamFailureRemovesPart(t *testing.T) {
	src := hundredByteSource()
	src.streamFn = func(string) io.ReadCloser {
		return &failingReader{data: []byte("partial"), err: errBoom}
	}
	notifier := &countingNotifier{}
	d, _, locked := newDownloader(t, src, nil, transfer.Deps{Notifier: notifier})

	_, err := d.RunPass(context.Background())
	if !errors.Is(err, transfer.ErrStream) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped stream failure, got %v", err)
	}
	entries, _ := os.ReadDir(locked)
	if len(entries) != 0 {
		t.Fatalf("expected empty staging dir, found %d entries", len(entries))
	}
	if src.deleteCount() != 0 {
		t.Fatal("remote delete must not run after stream failure")
	}
	if len(notifier.errs) != 1 {
		t.Fatalf("expected one error notification, got %d", len(notifier.errs))
	}
}

func TestDownloadPassReplacesStalePart(t *testing.T) {
	src := hundredByteSource()
	d, _, locked := newDownloader(t, src, nil, transfer.Deps{})
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(locked, "EVENT0001.MP4.part")
	if err := os.WriteFile(stale, bytes.Repeat([]byte("z"), 500), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := d.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(locked, "EVENT0001.MP4"))
	if err != nil || !bytes.Equal(data, bytes.Repeat([]byte("a"), 100)) {
		t.Fatalf("unexpected staged content (%d bytes): %v", len(data), err)
	}
}

func TestDownloadPassCapacityExceededMarksDone(t *testing.T) {
	src := hundredByteSource()
	guard := &fixedGuard{free: 200, margin: 100}
	d, state, _ := newDownloader(t, src, guard, transfer.Deps{})

	_, err := d.RunPass(context.Background())
	if !errors.Is(err, transfer.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if !state.DashcamDone() {
		t.Fatal("capacity failure should mark the dashcam pass done")
	}
	if len(src.opened) != 0 || src.deleteCount() != 0 {
		t.Fatalf("nothing should be downloaded or deleted: opened=%v", src.opened)
	}
}

func TestDownloadPassUnknownSizeSkipsGuardAndVerify(t *testing.T) {
	src := &fakeSource{
		files:   []dashcam.RemoteFile{{Name: "a.mp4"}},
		content: map[string][]byte{"a.mp4": []byte("hello")},
	}
	guard := &fixedGuard{free: 0}
	d, _, locked := newDownloader(t, src, guard, transfer.Deps{})

	if _, err := d.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if guard.calls != 0 {
		t.Fatalf("guard should not run for unknown sizes, got %d calls", guard.calls)
	}
	if _, err := os.Stat(filepath.Join(locked, "a.mp4")); err != nil {
		t.Fatalf("expected staged file: %v", err)
	}
	if src.deleteCount() != 1 {
		t.Fatal("expected remote delete")
	}
}

func TestDownloadPassAbortsOnFirstFailure(t *testing.T) {
	src := &fakeSource{
		files: []dashcam.RemoteFile{
			{Name: "a.mp4", Size: 3, SizeKnown: true},
			{Name: "b.mp4", Size: 3, SizeKnown: true},
			{Name: "c.mp4", Size: 3, SizeKnown: true},
		},
		content: map[string][]byte{"a.mp4": []byte("aaa"), "b.mp4": []byte("b"), "c.mp4": []byte("ccc")},
	}
	d, _, locked := newDownloader(t, src, nil, transfer.Deps{})

	if _, err := d.RunPass(context.Background()); !errors.Is(err, transfer.ErrIntegrityMismatch) {
		t.Fatalf("expected integrity mismatch, got %v", err)
	}
	if contains(src.opened, "c.mp4") {
		t.Fatal("pass should stop before the third file")
	}
	if _, err := os.Stat(filepath.Join(locked, "a.mp4")); err != nil {
		t.Fatalf("first file should remain staged: %v", err)
	}
	if src.deleteCount() != 1 {
		t.Fatalf("only the verified file should be remote-deleted, got %d", src.deleteCount())
	}
}

func TestDownloadPassEmptyListingIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	d, state, locked := newDownloader(t, src, nil, transfer.Deps{})

	for i := 0; i < 2; i++ {
		if _, err := d.RunPass(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		if !state.DashcamDone() {
			t.Fatalf("pass %d: expected dashcam done", i)
		}
	}
	if _, err := os.Stat(locked); !os.IsNotExist(err) {
		t.Fatalf("empty pass should not touch the staging dir, stat err=%v", err)
	}
}

func TestDownloadPassListingFailure(t *testing.T) {
	src := &fakeSource{listErr: errBoom}
	d, state, _ := newDownloader(t, src, nil, transfer.Deps{})

	_, err := d.RunPass(context.Background())
	if transfer.Kind(err) != "LISTING_FAILURE" {
		t.Fatalf("unexpected kind %q for %v", transfer.Kind(err), err)
	}
	if state.DashcamDone() {
		t.Fatal("listing failure must not mark done")
	}
}

func TestDownloadPassResetsHomeFlag(t *testing.T) {
	src := &fakeSource{listErr: errBoom}
	d, state, _ := newDownloader(t, src, nil, transfer.Deps{})
	state.SetHomeDone(true)

	_, _ = d.RunPass(context.Background())
	if state.HomeDone() {
		t.Fatal("starting a download pass must reset the home flag")
	}
}

func TestDownloadPassZeroSizeSkipsVerify(t *testing.T) {
	src := &fakeSource{
		files:   []dashcam.RemoteFile{{Name: "FAV.MP4", Size: 0, SizeKnown: true}},
		content: map[string][]byte{"FAV.MP4": bytes.Repeat([]byte("v"), 100)},
	}
	guard := &fixedGuard{free: 0}
	d, state, locked := newDownloader(t, src, guard, transfer.Deps{})

	if _, err := d.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	info, err := os.Stat(filepath.Join(locked, "FAV.MP4"))
	if err != nil || info.Size() != 100 {
		t.Fatalf("expected 100 byte staged file: %v", err)
	}
	if guard.calls != 0 {
		t.Fatalf("guard should not run for a zero size, got %d calls", guard.calls)
	}
	if src.deleteCount() != 1 || !state.DashcamDone() {
		t.Fatalf("expected remote delete and done flag, deletes=%d", src.deleteCount())
	}
}

func TestDownloadPassRemoteDeleteFailureKeepsLocalFile(t *testing.T) {
	src := hundredByteSource()
	src.deleteErr = errBoom
	journal := &memJournal{}
	d, state, locked := newDownloader(t, src, nil, transfer.Deps{Journal: journal})

	_, err := d.RunPass(context.Background())
	if !errors.Is(err, transfer.ErrRemoteDelete) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped remote delete failure, got %v", err)
	}
	if transfer.Kind(err) != "REMOTE_DELETE_FAILURE" {
		t.Fatalf("unexpected kind %q", transfer.Kind(err))
	}
	data, err := os.ReadFile(filepath.Join(locked, "EVENT0001.MP4"))
	if err != nil || len(data) != 100 {
		t.Fatalf("verified local file should stay staged (%d bytes): %v", len(data), err)
	}
	if state.DashcamDone() {
		t.Fatal("dashcam flag must stay false after a failed remote delete")
	}
	if len(journal.entries) != 1 || journal.entries[0].ErrorKind != "REMOTE_DELETE_FAILURE" {
		t.Fatalf("unexpected journal %+v", journal.entries)
	}
}

func TestDownloadPassRenameFailureRemovesPart(t *testing.T) {
	src := hundredByteSource()
	d, _, locked := newDownloader(t, src, nil, transfer.Deps{})
	// A non-empty directory at the final path makes the rename fail.
	blocker := filepath.Join(locked, "EVENT0001.MP4")
	if err := os.MkdirAll(filepath.Join(blocker, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := d.RunPass(context.Background())
	if !errors.Is(err, transfer.ErrRename) {
		t.Fatalf("expected rename failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(locked, "EVENT0001.MP4.part")); !os.IsNotExist(err) {
		t.Fatalf("expected part file removed, stat err=%v", err)
	}
	if src.deleteCount() != 0 {
		t.Fatal("remote delete must not run after a rename failure")
	}
}

func TestDownloadPassRejectsUnusableNames(t *testing.T) {
	for _, name := range []string{"", "..", "   ", "."} {
		src := &fakeSource{
			files:   []dashcam.RemoteFile{{Name: name, Size: 3, SizeKnown: true}},
			content: map[string][]byte{name: []byte("abc")},
		}
		d, _, _ := newDownloader(t, src, nil, transfer.Deps{})

		_, err := d.RunPass(context.Background())
		if !errors.Is(err, transfer.ErrListing) {
			t.Fatalf("name %q: expected listing failure, got %v", name, err)
		}
		if len(src.opened) != 0 || src.deleteCount() != 0 {
			t.Fatalf("name %q: nothing should be opened or deleted", name)
		}
	}
}
