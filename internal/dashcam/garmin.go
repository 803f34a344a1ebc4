package dashcam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"dashcamtransporter/internal/logging"
)

const (
	garminDefaultHost = "10.1.0.180"
	garminCommandPath = "/virb"
)

// flexValue accepts JSON strings, numbers and booleans as their text form.
type flexValue string

func (f *flexValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexValue(s)
		return nil
	}
	*f = flexValue(trimmed)
	return nil
}

type garminMediaItem struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	FileSize flexValue `json:"fileSize"`
	Fav      flexValue `json:"fav"`
	Type     string    `json:"type"`
}

type garminMediaList struct {
	Result *int              `json:"result"`
	Media  []garminMediaItem `json:"media"`
}

type garminResult struct {
	Result *int `json:"result"`
}

type garminDeleteRequest struct {
	Command string   `json:"command"`
	Files   []string `json:"files"`
}

// GarminVirb drives the JSON command API exposed at /virb.
type GarminVirb struct {
	base   string
	client HTTPDoer
	logger *slog.Logger
}

// NewGarminVirb constructs a VIRB client. An empty host uses the camera default.
func NewGarminVirb(host string, client HTTPDoer, logger *slog.Logger) *GarminVirb {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GarminVirb{base: baseURL(host, garminDefaultHost), client: client, logger: logger}
}

func (g *GarminVirb) Name() string { return "GarminVirb" }

// ListLockedFiles returns favourite video items from mediaList.
func (g *GarminVirb) ListLockedFiles(ctx context.Context) ([]RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var listing garminMediaList
	if err := g.command(ctx, map[string]string{"command": "mediaList"}, &listing); err != nil {
		return nil, fmt.Errorf("garmin list: %w", err)
	}

	files := make([]RemoteFile, 0, len(listing.Media))
	for _, item := range listing.Media {
		if !garminIsFavorite(item) || !garminIsVideo(item) {
			continue
		}
		remote := strings.TrimSpace(item.URL)
		if remote == "" {
			continue
		}
		file := RemoteFile{Name: garminFileName(item.Name, remote), RemotePath: remote}
		if size, err := strconv.ParseFloat(strings.TrimSpace(string(item.FileSize)), 64); err == nil && size > 0 {
			file.Size = int64(size)
			file.SizeKnown = true
		}
		files = append(files, file)
	}
	return files, nil
}

// OpenDownload streams the recording from its media URL.
func (g *GarminVirb) OpenDownload(ctx context.Context, file RemoteFile) (io.ReadCloser, error) {
	resp, err := doGet(ctx, g.client, g.downloadURL(file.RemotePath))
	if err != nil {
		return nil, fmt.Errorf("garmin download %s: %w", file.Name, err)
	}
	return resp.Body, nil
}

// DeleteRemote removes the recording with deleteFileGroup, falling back to deleteFile.
func (g *GarminVirb) DeleteRemote(ctx context.Context, file RemoteFile) error {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	target := garminURLPath(file.RemotePath)
	ok, err := g.delete(ctx, "deleteFileGroup", target)
	if err == nil && ok {
		return nil
	}
	logging.WarnWithContext(g.logger, "deleteFileGroup failed; retrying with deleteFile", "garmin_delete_fallback",
		logging.File(file.Name),
		logging.String(logging.FieldImpact, "falling back to single file delete"),
	)
	ok, err = g.delete(ctx, "deleteFile", target)
	if err != nil {
		return fmt.Errorf("garmin delete %s: %w", file.Name, err)
	}
	if !ok {
		return fmt.Errorf("garmin delete %s: camera rejected request", file.Name)
	}
	return nil
}

func (g *GarminVirb) delete(ctx context.Context, command, target string) (bool, error) {
	var result garminResult
	if err := g.command(ctx, garminDeleteRequest{Command: command, Files: []string{target}}, &result); err != nil {
		return false, err
	}
	return result.Result != nil && *result.Result == 1, nil
}

func (g *GarminVirb) command(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+garminCommandPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// The camera firmware expects this content type even for JSON bodies.
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("virb command returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("virb command returned empty body")
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *GarminVirb) downloadURL(pathOrURL string) string {
	trimmed := strings.TrimSpace(pathOrURL)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "/") {
		return g.base + trimmed
	}
	return g.base + "/" + trimmed
}

func garminIsFavorite(item garminMediaItem) bool {
	switch strings.ToLower(strings.TrimSpace(string(item.Fav))) {
	case "1", "true", "yes", "fav", "favorite":
		return true
	default:
		return false
	}
}

func garminIsVideo(item garminMediaItem) bool {
	kind := strings.ToLower(strings.TrimSpace(item.Type))
	if strings.Contains(kind, "video") {
		return true
	}
	if kind != "" {
		return false
	}
	switch strings.ToLower(path.Ext(garminFileName(item.Name, item.URL))) {
	case ".mp4", ".mov", ".avi", ".mkv":
		return true
	default:
		return false
	}
}

func garminFileName(name, remote string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	if strings.TrimSpace(remote) == "" {
		return "unknown"
	}
	base := path.Base(garminURLPath(remote))
	if base == "/" || base == "." || base == "" {
		return "unknown"
	}
	return base
}

func garminURLPath(pathOrURL string) string {
	trimmed := strings.TrimSpace(pathOrURL)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if parsed, err := url.Parse(trimmed); err == nil {
			return parsed.Path
		}
		return trimmed
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
