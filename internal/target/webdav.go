package target

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

// HTTPDoer describes the HTTP client used by the WebDAV target.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebDAV uploads to a WebDAV collection such as a Nextcloud files endpoint.
type WebDAV struct {
	baseURL   string
	username  string
	password  string
	remoteDir string
	client    HTTPDoer
	logger    *slog.Logger

	// ready is set once the remote directory exists. Uploads run one at a
	// time from the transfer loop.
	ready bool
}

// NewWebDAV constructs a WebDAV target. A nil client uses http.DefaultClient.
func NewWebDAV(cfg config.WebDAV, client HTTPDoer, logger *slog.Logger) *WebDAV {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WebDAV{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		remoteDir: lockedDir(cfg.StoragePath),
		client:    client,
		logger:    logger,
	}
}

func (w *WebDAV) Name() string { return "WebDAV" }

// Upload PUTs the file and confirms the remote Content-Length.
func (w *WebDAV) Upload(ctx context.Context, file LocalFile) error {
	if err := w.ensureReady(ctx); err != nil {
		return err
	}
	remote := w.remoteDir + "/" + file.Name
	w.logger.Debug("uploading file to webdav", logging.File(file.Name))

	if err := w.put(ctx, file.Path, remote); err != nil {
		return err
	}
	size, err := w.remoteSize(ctx, remote)
	if err != nil {
		return err
	}
	return verifySize(remote, file.Size, size)
}

func (w *WebDAV) ensureReady(ctx context.Context) error {
	if w.ready {
		return nil
	}
	current := ""
	for _, segment := range strings.Split(w.remoteDir, "/") {
		if current == "" {
			current = segment
		} else {
			current += "/" + segment
		}
		if err := w.mkcol(ctx, current); err != nil {
			return err
		}
	}
	w.ready = true
	return nil
}

func (w *WebDAV) mkcol(ctx context.Context, remote string) error {
	resp, err := w.do(ctx, "MKCOL", remote, nil, -1)
	if err != nil {
		return fmt.Errorf("webdav mkcol %s: %w", remote, err)
	}
	defer resp.Body.Close()
	// 405 Method Not Allowed means the collection already exists.
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	return fmt.Errorf("webdav mkcol %s returned %d", remote, resp.StatusCode)
}

func (w *WebDAV) put(ctx context.Context, localPath, remote string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	resp, err := w.do(ctx, http.MethodPut, remote, f, info.Size())
	if err != nil {
		return fmt.Errorf("webdav put %s: %w", remote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webdav put %s returned %d", remote, resp.StatusCode)
	}
	return nil
}

func (w *WebDAV) remoteSize(ctx context.Context, remote string) (int64, error) {
	resp, err := w.do(ctx, http.MethodHead, remote, nil, -1)
	if err != nil {
		return 0, fmt.Errorf("webdav head %s: %w", remote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: webdav head %s returned %d", ErrVerify, remote, resp.StatusCode)
	}
	header := resp.Header.Get("Content-Length")
	if header == "" {
		return 0, fmt.Errorf("%w: %s missing content-length", ErrVerify, remote)
	}
	size, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s invalid content-length %q", ErrVerify, remote, header)
	}
	return size, nil
}

func (w *WebDAV) do(ctx context.Context, method, remote string, body *os.File, size int64) (*http.Response, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, w.requestURL(remote), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, w.requestURL(remote), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	req.SetBasicAuth(w.username, w.password)
	return w.client.Do(req)
}

func (w *WebDAV) requestURL(remote string) string {
	segments := strings.Split(cleanRemotePath(remote), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return w.baseURL + "/" + strings.Join(segments, "/")
}
