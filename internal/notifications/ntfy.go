package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	userAgent      = "dashcam-transporter/1.0"
	defaultNtfyURL = "https://ntfy.sh/"
	maxErrorBody   = 2048
)

// message is one ntfy publish. Fields map onto ntfy's header API.
type message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

func (m message) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	if m.Title != "" {
		h.Set("Title", m.Title)
	}
	if len(m.Tags) > 0 {
		h.Set("Tags", strings.Join(m.Tags, ","))
	}
	if m.Priority != "" {
		h.Set("Priority", m.Priority)
	}
	return h
}

// publisher posts messages to a single ntfy topic URL.
type publisher struct {
	endpoint string
	client   *http.Client
}

// topicEndpoint accepts a full URL or a bare ntfy.sh topic name.
func topicEndpoint(topic string) string {
	if strings.Contains(topic, "://") {
		return topic
	}
	return defaultNtfyURL + strings.TrimLeft(topic, "/")
}

func (p publisher) publish(ctx context.Context, m message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(m.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header = m.headers()

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish to ntfy: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("ntfy returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
