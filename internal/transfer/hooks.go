package transfer

import (
	"context"
	"errors"
	"log/slog"

	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/logging"
)

// Journal records per-file outcomes. history.Store satisfies it.
type Journal interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Notifier announces completed passes and failures. notifications.Service
// satisfies it.
type Notifier interface {
	NotifyDownloadCompleted(ctx context.Context, count int, bytes int64) error
	NotifyUploadCompleted(ctx context.Context, count int, targets []string) error
	NotifyError(ctx context.Context, err error, context string) error
}

// CapacityChecker answers whether a download of the given size fits.
type CapacityChecker interface {
	HasCapacity(requested int64) (bool, error)
}

// PassResult summarizes one download or upload pass.
type PassResult struct {
	PassID    string
	Direction string
	Files     int
	Bytes     int64
}

func record(ctx context.Context, journal Journal, logger *slog.Logger, entry history.Entry) {
	if journal == nil {
		return
	}
	if err := journal.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.File(entry.File),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
			logging.String(logging.FieldImpact, "transfer succeeded but is missing from history"),
		)
	}
}

func outcomeEntry(passID, direction, file string, size int64, target string, err error) history.Entry {
	entry := history.Entry{
		PassID:    passID,
		Direction: direction,
		File:      file,
		SizeBytes: size,
		Target:    target,
		Outcome:   history.OutcomeSuccess,
	}
	if err != nil {
		entry.Outcome = history.OutcomeFailed
		entry.ErrorKind = Kind(err)
		entry.ErrorMessage = err.Error()
	}
	return entry
}

func notifyError(ctx context.Context, notifier Notifier, logger *slog.Logger, err error, label string) {
	if notifier == nil || err == nil || isCanceled(err) {
		return
	}
	if nerr := notifier.NotifyError(ctx, err, label); nerr != nil {
		logger.Debug("error notification failed", logging.Error(nerr))
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
