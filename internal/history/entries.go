package history

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Direction values.
const (
	DirectionDownload = "download"
	DirectionUpload   = "upload"
)

// Outcome values.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Entry is one journaled file transfer attempt.
type Entry struct {
	ID           int64     `json:"id"`
	PassID       string    `json:"pass_id"`
	Direction    string    `json:"direction"`
	File         string    `json:"file"`
	SizeBytes    int64     `json:"size_bytes"`
	Target       string    `json:"target,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Totals aggregates journal rows by direction and outcome.
type Totals struct {
	Downloaded      int   `json:"downloaded"`
	DownloadedBytes int64 `json:"downloaded_bytes"`
	Uploaded        int   `json:"uploaded"`
	Failures        int   `json:"failures"`
}

// Record appends an entry. A zero RecordedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return nil
	}
	ctx = ensureContext(ctx)
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	if strings.TrimSpace(entry.File) == "" {
		return fmt.Errorf("history: entry requires a file name")
	}
	_, err := s.exec(ctx,
		`INSERT INTO transfers (pass_id, direction, file, size_bytes, target, outcome, error_kind, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.PassID, entry.Direction, entry.File, entry.SizeBytes, entry.Target,
		entry.Outcome, entry.ErrorKind, entry.ErrorMessage, formatTime(entry.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("record transfer: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pass_id, direction, file, size_bytes, target, outcome, error_kind, error_message, recorded_at
		 FROM transfers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			recordedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.PassID, &entry.Direction, &entry.File, &entry.SizeBytes,
			&entry.Target, &entry.Outcome, &entry.ErrorKind, &entry.ErrorMessage, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			entry.RecordedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Totals aggregates all journal rows.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var totals Totals
	if s == nil || s.db == nil {
		return totals, nil
	}
	ctx = ensureContext(ctx)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN direction = ? AND outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = ? AND outcome = ? THEN size_bytes ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = ? AND outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM transfers`,
		DirectionDownload, OutcomeSuccess,
		DirectionDownload, OutcomeSuccess,
		DirectionUpload, OutcomeSuccess,
		OutcomeFailed,
	).Scan(&totals.Downloaded, &totals.DownloadedBytes, &totals.Uploaded, &totals.Failures)
	if err != nil {
		return totals, fmt.Errorf("query history totals: %w", err)
	}
	return totals, nil
}

// Prune deletes entries recorded before cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	res, err := s.exec(ctx, "DELETE FROM transfers WHERE recorded_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// formatTime stores instants as fixed-width UTC text so that string
// comparison in SQL matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
