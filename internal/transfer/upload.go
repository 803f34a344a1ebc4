package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/staging"
	"dashcamtransporter/internal/target"
)

// Uploader copies staged recordings to every enabled target and removes the
// local copy once all of them confirmed it.
type Uploader struct {
	targets   []target.Target
	lockedDir string
	state     *State
	deps      Deps
	logger    *slog.Logger
}

// NewUploader wires an upload pipeline over targets, tried in order.
func NewUploader(targets []target.Target, lockedDir string, state *State, deps Deps, logger *slog.Logger) *Uploader {
	if state == nil {
		state = NewState()
	}
	return &Uploader{
		targets:   targets,
		lockedDir: lockedDir,
		state:     state,
		deps:      deps,
		logger:    logging.NewComponentLogger(logger, "upload"),
	}
}

// RunPass uploads every staged file. Within a file all targets are attempted
// even after one fails; the file is deleted only when every target succeeded.
// The first error of a failing file aborts the pass after that file's targets.
func (u *Uploader) RunPass(ctx context.Context) (result PassResult, err error) {
	result = PassResult{PassID: u.deps.newID(), Direction: history.DirectionUpload}
	ctx = logging.WithPass(ctx, result.PassID, result.Direction)
	logger := logging.WithContext(ctx, u.logger)

	u.state.beginUpload()
	defer func() {
		u.state.finishPass(u.deps.now(), err)
		if err != nil {
			notifyError(ctx, u.deps.Notifier, logger, err, "upload pass")
		}
	}()

	files, err := staging.List(u.lockedDir)
	if err != nil {
		return result, Wrap(ErrStaging, "list", u.lockedDir, err)
	}
	if len(files) == 0 || len(u.targets) == 0 {
		if len(u.targets) == 0 && len(files) > 0 {
			logging.WarnWithContext(logger, "no upload targets enabled", "upload_no_targets",
				logging.Int("staged_files", len(files)),
				logging.String(logging.FieldErrorHint, "enable smb, webdav or s3 in the config"),
				logging.String(logging.FieldImpact, "staged recordings stay on local disk"),
			)
		}
		u.state.SetHomeDone(true)
		return result, nil
	}

	logger.Info("upload pass started",
		logging.String(logging.FieldEventType, "upload_started"),
		logging.Int("files", len(files)),
		logging.Int("targets", len(u.targets)),
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := u.uploadFile(ctx, logger, result.PassID, file); err != nil {
			return result, err
		}
		result.Files++
		result.Bytes += file.Size
	}

	u.state.SetHomeDone(true)
	logger.Info("upload pass completed",
		logging.String(logging.FieldEventType, "upload_completed"),
		logging.Int("files", result.Files),
		logging.Bytes("bytes", result.Bytes),
	)
	if u.deps.Notifier != nil && result.Files > 0 {
		if nerr := u.deps.Notifier.NotifyUploadCompleted(ctx, result.Files, target.Names(u.targets)); nerr != nil {
			logger.Debug("upload notification failed", logging.Error(nerr))
		}
	}
	return result, nil
}

func (u *Uploader) uploadFile(ctx context.Context, logger *slog.Logger, passID string, file staging.File) error {
	logger = logger.With(logging.File(file.Name))
	local := target.LocalFile{Name: file.Name, Path: file.Path, Size: file.Size}

	var errs []error
	for _, t := range u.targets {
		err := t.Upload(ctx, local)
		if err != nil {
			marker := ErrUpload
			if errors.Is(err, target.ErrVerify) {
				marker = ErrUploadVerify
			}
			err = Wrap(marker, "upload", fmt.Sprintf("%s to %s", file.Name, t.Name()), err)
			logging.WarnWithContext(logger, "upload to target failed", "upload_target_failed",
				logging.Target(t.Name()),
				logging.ErrorKind(Kind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check target reachability and credentials"),
				logging.String(logging.FieldImpact, "recording kept locally for the next upload pass"),
			)
			errs = append(errs, err)
		} else {
			logger.Debug("uploaded to target", logging.Target(t.Name()))
		}
		record(ctx, u.deps.Journal, logger, outcomeEntry(passID, history.DirectionUpload, file.Name, file.Size, t.Name(), err))
	}
	if len(errs) > 0 {
		return errs[0]
	}

	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		return Wrap(ErrStaging, "remove uploaded", file.Path, err)
	}
	logger.Info("recording uploaded",
		logging.String(logging.FieldEventType, "file_uploaded"),
		logging.Int64("size_bytes", file.Size),
		logging.Int("targets", len(u.targets)),
	)
	return nil
}
