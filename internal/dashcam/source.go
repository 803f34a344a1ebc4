package dashcam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

// RemoteFile is one locked recording reported by a dashcam listing.
type RemoteFile struct {
	Name       string
	RemotePath string
	Size       int64
	SizeKnown  bool
}

// ExpectedSize returns the advertised size when the camera reported a
// positive one. A zero size cannot be checked against the download.
func (f RemoteFile) ExpectedSize() (int64, bool) {
	if !f.SizeKnown || f.Size <= 0 {
		return 0, false
	}
	return f.Size, true
}

// Source is the capability a dashcam model exposes to the download pipeline.
type Source interface {
	Name() string
	ListLockedFiles(ctx context.Context) ([]RemoteFile, error)
	OpenDownload(ctx context.Context, file RemoteFile) (io.ReadCloser, error)
	DeleteRemote(ctx context.Context, file RemoteFile) error
}

// HTTPDoer describes the HTTP client used by the camera clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// listTimeout bounds listing and delete calls; downloads rely on ctx only.
const listTimeout = 30 * time.Second

// NewSource selects the camera client for the configured model.
func NewSource(cfg *config.Config, logger *slog.Logger) Source {
	client := &http.Client{}
	model := ""
	host := ""
	if cfg != nil {
		model = cfg.Dashcam.Model
		host = cfg.Dashcam.Host
	}
	logger = logging.NewComponentLogger(logger, "dashcam")
	switch model {
	case config.ModelGarminVirb:
		return NewGarminVirb(host, client, logger)
	default:
		return NewVIOFO(host, client, logger)
	}
}

func baseURL(host, fallback string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = fallback
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "http://" + strings.TrimRight(host, "/")
}

func doGet(ctx context.Context, client HTTPDoer, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s returned %d", url, resp.StatusCode)
	}
	return resp, nil
}
