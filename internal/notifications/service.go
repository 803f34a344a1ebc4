package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"dashcamtransporter/internal/config"
)

// errorCooldown suppresses repeats of an identical error notification. The
// main loop retries every few seconds, so a persistent fault would otherwise
// publish on every tick.
const errorCooldown = 30 * time.Minute

// Service defines the notification surface exposed to the transfer passes.
type Service interface {
	NotifyDownloadCompleted(ctx context.Context, count int, bytes int64) error
	NotifyUploadCompleted(ctx context.Context, count int, targets []string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		pub: publisher{
			endpoint: topicEndpoint(strings.TrimSpace(cfg.Notifications.NtfyTopic)),
			client:   &http.Client{Timeout: timeout},
		},
		settings:   cfg.Notifications,
		now:        time.Now,
		lastErrors: make(map[string]time.Time),
	}
}

type ntfyService struct {
	pub      publisher
	settings config.Notifications
	now      func() time.Time

	mu         sync.Mutex
	lastErrors map[string]time.Time
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, count int, bytes int64) error {
	if !n.settings.Download || count <= 0 {
		return nil
	}
	return n.pub.publish(ctx, message{
		Title: "Dashcam - Recordings Downloaded",
		Body:  fmt.Sprintf("🚗 Downloaded %d locked recording(s) (%s)", count, humanize.Bytes(uint64(max(bytes, 0)))),
		Tags:  []string{"dashcam", "download", "completed"},
	})
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, count int, targets []string) error {
	if !n.settings.Upload || count <= 0 {
		return nil
	}
	body := fmt.Sprintf("🏠 Uploaded %d recording(s)", count)
	if len(targets) > 0 {
		body += " to " + strings.Join(targets, ", ")
	}
	return n.pub.publish(ctx, message{
		Title: "Dashcam - Recordings Uploaded",
		Body:  body,
		Tags:  []string{"dashcam", "upload", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, during string) error {
	if !n.settings.Errors {
		return nil
	}
	body := errorBody(err, during)
	if !n.firstInCooldown(body) {
		return nil
	}
	return n.pub.publish(ctx, message{
		Title:    "Dashcam - Error",
		Body:     body,
		Tags:     []string{"dashcam", "error", "alert"},
		Priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.pub.publish(ctx, message{
		Title:    "Dashcam - Test",
		Body:     "🧪 Notification system test",
		Tags:     []string{"dashcam", "test"},
		Priority: "low",
	})
}

func errorBody(err error, during string) string {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	if during = strings.TrimSpace(during); during != "" {
		return "❌ Error during " + during + ": " + reason
	}
	return "❌ Error: " + reason
}

// firstInCooldown records body and reports whether it was not already sent
// within errorCooldown.
func (n *ntfyService) firstInCooldown(body string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	for key, sent := range n.lastErrors {
		if now.Sub(sent) >= errorCooldown {
			delete(n.lastErrors, key)
		}
	}
	if _, recent := n.lastErrors[body]; recent {
		return false
	}
	n.lastErrors[body] = now
	return true
}

type noopService struct{}

func (noopService) NotifyDownloadCompleted(context.Context, int, int64) error  { return nil }
func (noopService) NotifyUploadCompleted(context.Context, int, []string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
