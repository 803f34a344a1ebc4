package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon, loop and staging status.
type StatusResponse struct {
	Running         bool      `json:"running"`
	PID             int       `json:"pid"`
	Operation       string    `json:"operation"`
	DashcamDone     bool      `json:"dashcam_done"`
	HomeDone        bool      `json:"home_done"`
	Associated      string    `json:"associated"`
	LastAction      string    `json:"last_action"`
	LastTickAt      time.Time `json:"last_tick_at"`
	LastPassAt      time.Time `json:"last_pass_at"`
	LastError       string    `json:"last_error"`
	StagedFiles     int       `json:"staged_files"`
	StagedBytes     int64     `json:"staged_bytes"`
	Downloaded      int       `json:"downloaded"`
	DownloadedBytes int64     `json:"downloaded_bytes"`
	Uploaded        int       `json:"uploaded"`
	Failures        int       `json:"failures"`
	HistoryPath     string    `json:"history_path"`
	LEDActive       bool      `json:"led_active"`
}

// HistoryRequest fetches the newest transfer history entries.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry is one recorded per-file outcome.
type HistoryEntry struct {
	PassID       string    `json:"pass_id"`
	Direction    string    `json:"direction"`
	File         string    `json:"file"`
	SizeBytes    int64     `json:"size_bytes"`
	Target       string    `json:"target"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind"`
	ErrorMessage string    `json:"error_message"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// HistoryResponse contains history entries, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports test notification outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
