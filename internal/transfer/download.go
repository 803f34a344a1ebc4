package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"dashcamtransporter/internal/dashcam"
	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/staging"
)

// Deps carries the optional collaborators shared by both pipelines.
type Deps struct {
	Journal  Journal
	Notifier Notifier
	Now      func() time.Time
	NewID    func() string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// Downloader drains locked recordings from a dashcam into the staging directory.
type Downloader struct {
	source    dashcam.Source
	guard     CapacityChecker
	lockedDir string
	state     *State
	deps      Deps
	logger    *slog.Logger
}

// NewDownloader wires a download pipeline. guard may be nil to skip capacity checks.
func NewDownloader(source dashcam.Source, guard CapacityChecker, lockedDir string, state *State, deps Deps, logger *slog.Logger) *Downloader {
	if state == nil {
		state = NewState()
	}
	return &Downloader{
		source:    source,
		guard:     guard,
		lockedDir: lockedDir,
		state:     state,
		deps:      deps,
		logger:    logging.NewComponentLogger(logger, "download"),
	}
}

// RunPass lists the camera's locked files and moves each one into the staging
// directory. A remote file is deleted only after its local copy has been
// renamed into place and its size verified. The first failure aborts the pass;
// files already moved stay valid and the next pass re-lists from scratch.
func (d *Downloader) RunPass(ctx context.Context) (result PassResult, err error) {
	result = PassResult{PassID: d.deps.newID(), Direction: history.DirectionDownload}
	ctx = logging.WithPass(ctx, result.PassID, result.Direction)
	logger := logging.WithContext(ctx, d.logger)

	d.state.beginDownload()
	defer func() {
		d.state.finishPass(d.deps.now(), err)
		if err != nil {
			notifyError(ctx, d.deps.Notifier, logger, err, "download pass")
		}
	}()

	files, err := d.source.ListLockedFiles(ctx)
	if err != nil {
		return result, Wrap(ErrListing, "list", fmt.Sprintf("list locked files on %s", d.source.Name()), err)
	}
	if len(files) == 0 {
		logger.Debug("no locked files on dashcam", logging.String(logging.FieldEventType, "download_empty"))
		d.state.SetDashcamDone(true)
		return result, nil
	}

	if err := os.MkdirAll(d.lockedDir, 0o755); err != nil {
		return result, Wrap(ErrStaging, "mkdir", d.lockedDir, err)
	}

	logger.Info("download pass started",
		logging.String(logging.FieldEventType, "download_started"),
		logging.Int("files", len(files)),
		logging.String("source", d.source.Name()),
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		written, err := d.transferFile(ctx, logger, file)
		record(ctx, d.deps.Journal, logger, outcomeEntry(result.PassID, result.Direction, file.Name, written, d.source.Name(), err))
		if err != nil {
			return result, err
		}
		result.Files++
		result.Bytes += written
	}

	d.state.SetDashcamDone(true)
	logger.Info("download pass completed",
		logging.String(logging.FieldEventType, "download_completed"),
		logging.Int("files", result.Files),
		logging.Bytes("bytes", result.Bytes),
	)
	if d.deps.Notifier != nil {
		if nerr := d.deps.Notifier.NotifyDownloadCompleted(ctx, result.Files, result.Bytes); nerr != nil {
			logger.Debug("download notification failed", logging.Error(nerr))
		}
	}
	return result, nil
}

func (d *Downloader) transferFile(ctx context.Context, logger *slog.Logger, file dashcam.RemoteFile) (int64, error) {
	logger = logger.With(logging.File(file.Name))
	name, ok := stagedName(file.Name)
	if !ok {
		return 0, Wrap(ErrListing, "file name", fmt.Sprintf("%q does not name a file", file.Name), nil)
	}
	expected, sizeKnown := file.ExpectedSize()

	if sizeKnown && expected > 0 && d.guard != nil {
		ok, err := d.guard.HasCapacity(expected)
		if err != nil {
			return 0, Wrap(ErrStaging, "statfs", d.lockedDir, err)
		}
		if !ok {
			d.state.SetDashcamDone(true)
			logging.WarnWithContext(logger, "not enough free space for download", "capacity_exceeded",
				logging.Int64("requested_bytes", expected),
				logging.String(logging.FieldErrorHint, "upload staged files or free space in the download directory"),
				logging.String(logging.FieldImpact, "dashcam transfer paused until the next upload pass"),
			)
			return 0, Wrap(ErrCapacityExceeded, "capacity", fmt.Sprintf("%s needs %s", file.Name, humanize.Bytes(uint64(expected))), nil)
		}
	}

	finalPath := filepath.Join(d.lockedDir, name)
	partPath := staging.PartPath(finalPath)
	if err := os.Remove(partPath); err != nil && !os.IsNotExist(err) {
		return 0, Wrap(ErrStaging, "remove stale part", partPath, err)
	}

	written, err := d.stream(ctx, logger, file, partPath, expected, sizeKnown)
	if err != nil {
		_ = os.Remove(partPath)
		return written, err
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		_ = os.Remove(partPath)
		return written, Wrap(ErrRename, "rename", file.Name, err)
	}

	if sizeKnown {
		info, err := os.Stat(finalPath)
		if err != nil {
			return written, Wrap(ErrIntegrityMismatch, "verify", file.Name, err)
		}
		if info.Size() != expected {
			_ = os.Remove(finalPath)
			return written, Wrap(ErrIntegrityMismatch, "verify",
				fmt.Sprintf("%s: expected %d bytes, got %d", file.Name, expected, info.Size()), nil)
		}
	}

	if err := d.source.DeleteRemote(ctx, file); err != nil {
		return written, Wrap(ErrRemoteDelete, "delete remote", file.Name, err)
	}

	logger.Info("recording downloaded",
		logging.String(logging.FieldEventType, "file_downloaded"),
		logging.Int64("size_bytes", written),
	)
	return written, nil
}

// stagedName reduces a listing name to its base and rejects names that would
// resolve to the staging directory or its parent.
func stagedName(raw string) (string, bool) {
	name := filepath.Base(strings.TrimSpace(raw))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "", false
	}
	return name, true
}

func (d *Downloader) stream(ctx context.Context, logger *slog.Logger, file dashcam.RemoteFile, partPath string, expected int64, sizeKnown bool) (int64, error) {
	body, err := d.source.OpenDownload(ctx, file)
	if err != nil {
		return 0, Wrap(ErrStream, "open download", file.Name, err)
	}
	defer body.Close()

	out, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, Wrap(ErrStaging, "create part", partPath, err)
	}

	total := int64(-1)
	if sizeKnown {
		total = expected
	}
	pw := &progressWriter{
		w:       out,
		total:   total,
		sampler: logging.NewProgressSampler(25),
		logger:  logger,
	}
	written, copyErr := io.Copy(pw, body)
	closeErr := out.Close()
	if copyErr != nil {
		return written, Wrap(ErrStream, "download", file.Name, copyErr)
	}
	if closeErr != nil {
		return written, Wrap(ErrStream, "close part", file.Name, closeErr)
	}
	return written, nil
}

type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.sampler.ShouldLog(p.written, p.total) {
		p.logger.Debug("download progress",
			logging.Bytes("written", p.written),
			logging.Bytes("total", p.total),
		)
	}
	return n, err
}
