package ipc

import (
	"context"
	"log/slog"

	"dashcamtransporter/internal/logging"
)

// service holds the RPC methods. net/rpc methods carry no context, so calls
// use the server's lifetime context.
type service struct {
	backend Backend
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.backend.Status(s.ctx)
	loop := status.Workflow
	snap := loop.Transfer
	*resp = StatusResponse{
		Running:         status.Running,
		PID:             status.PID,
		Operation:       string(snap.Operation),
		DashcamDone:     snap.DashcamDone,
		HomeDone:        snap.HomeDone,
		Associated:      loop.Associated,
		LastAction:      string(loop.LastAction),
		LastTickAt:      loop.LastTickAt,
		LastPassAt:      snap.LastPassAt,
		LastError:       snap.LastError,
		StagedFiles:     status.StagedFiles,
		StagedBytes:     status.StagedBytes,
		Downloaded:      status.Totals.Downloaded,
		DownloadedBytes: status.Totals.DownloadedBytes,
		Uploaded:        status.Totals.Uploaded,
		Failures:        status.Totals.Failures,
		HistoryPath:     status.HistoryPath,
		LEDActive:       status.LEDActive,
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.backend.Recent(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, len(entries))
	for i, e := range entries {
		resp.Entries[i] = HistoryEntry{
			PassID:       e.PassID,
			Direction:    e.Direction,
			File:         e.File,
			SizeBytes:    e.SizeBytes,
			Target:       e.Target,
			Outcome:      e.Outcome,
			ErrorKind:    e.ErrorKind,
			ErrorMessage: e.ErrorMessage,
			RecordedAt:   e.RecordedAt,
		}
	}
	return nil
}

// TestNotification always succeeds at the RPC level; delivery failures are
// reported in the response so the CLI can render them.
func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.backend.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	if err != nil {
		s.logger.Warn("test notification failed", logging.Error(err))
		resp.Message = message + ": " + err.Error()
	}
	return nil
}
