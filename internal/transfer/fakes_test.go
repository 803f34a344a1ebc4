package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"dashcamtransporter/internal/capacity"
	"dashcamtransporter/internal/dashcam"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/target"
)

type fakeSource struct {
	files     []dashcam.RemoteFile
	content   map[string][]byte
	listErr   error
	openErr   error
	deleteErr error
	streamFn  func(name string) io.ReadCloser

	mu      sync.Mutex
	deleted []string
	opened  []string
}

func (f *fakeSource) Name() string { return "fake-cam" }

func (f *fakeSource) ListLockedFiles(context.Context) ([]dashcam.RemoteFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dashcam.RemoteFile
	for _, file := range f.files {
		if !contains(f.deleted, file.Name) {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeSource) OpenDownload(_ context.Context, file dashcam.RemoteFile) (io.ReadCloser, error) {
	f.mu.Lock()
	f.opened = append(f.opened, file.Name)
	f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.streamFn != nil {
		return f.streamFn(file.Name), nil
	}
	return io.NopCloser(bytes.NewReader(f.content[file.Name])), nil
}

func (f *fakeSource) DeleteRemote(_ context.Context, file dashcam.RemoteFile) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, file.Name)
	return nil
}

func (f *fakeSource) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

// failingReader yields data and then fails.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func (r *failingReader) Close() error { return nil }

type fixedGuard struct {
	free   uint64
	margin int64
	err    error
	calls  int
}

func (g *fixedGuard) HasCapacity(requested int64) (bool, error) {
	g.calls++
	if g.err != nil {
		return false, g.err
	}
	return capacity.Fits(g.free, requested, g.margin), nil
}

type fakeTarget struct {
	name     string
	err      error
	uploaded []string
}

func (t *fakeTarget) Name() string { return t.name }

func (t *fakeTarget) Upload(_ context.Context, file target.LocalFile) error {
	t.uploaded = append(t.uploaded, file.Name)
	return t.err
}

type memJournal struct {
	entries []history.Entry
}

func (j *memJournal) Record(_ context.Context, entry history.Entry) error {
	j.entries = append(j.entries, entry)
	return nil
}

type countingNotifier struct {
	downloads int
	uploads   int
	errs      []error
}

func (n *countingNotifier) NotifyDownloadCompleted(context.Context, int, int64) error {
	n.downloads++
	return nil
}

func (n *countingNotifier) NotifyUploadCompleted(context.Context, int, []string) error {
	n.uploads++
	return nil
}

func (n *countingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	n.errs = append(n.errs, err)
	return nil
}

var errBoom = errors.New("boom")

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
