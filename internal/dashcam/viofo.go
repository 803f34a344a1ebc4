package dashcam

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"dashcamtransporter/internal/logging"
)

const (
	viofoDefaultHost = "192.168.1.254"
	viofoListPath    = "/?custom=1&cmd=3015"

	// viofoAttrLocked marks a read-only (parking/event) recording.
	viofoAttrLocked = 33
	// viofoAttrNormal marks an ordinary loop recording.
	viofoAttrNormal = 32
)

type viofoFile struct {
	Name     string `xml:"NAME"`
	FPath    string `xml:"FPATH"`
	Size     int64  `xml:"SIZE"`
	TimeCode int64  `xml:"TIMECODE"`
	Time     string `xml:"TIME"`
	Attr     int    `xml:"ATTR"`
}

type viofoListing struct {
	XMLName xml.Name `xml:"LIST"`
	Entries []struct {
		File viofoFile `xml:"File"`
	} `xml:"ALLFile"`
}

// VIOFO is the Novatek-based HTTP API used by VIOFO cameras.
type VIOFO struct {
	base   string
	client HTTPDoer
	logger *slog.Logger
}

// NewVIOFO constructs a VIOFO client. An empty host uses the camera default.
func NewVIOFO(host string, client HTTPDoer, logger *slog.Logger) *VIOFO {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &VIOFO{base: baseURL(host, viofoDefaultHost), client: client, logger: logger}
}

func (v *VIOFO) Name() string { return "VIOFO" }

// ListLockedFiles returns recordings with the locked attribute.
func (v *VIOFO) ListLockedFiles(ctx context.Context) ([]RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	resp, err := doGet(ctx, v.client, v.base+viofoListPath)
	if err != nil {
		return nil, fmt.Errorf("viofo list: %w", err)
	}
	defer resp.Body.Close()

	var listing viofoListing
	if err := xml.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("viofo list: decode: %w", err)
	}

	files := make([]RemoteFile, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		f := entry.File
		switch f.Attr {
		case viofoAttrLocked:
			files = append(files, RemoteFile{
				Name:       f.Name,
				RemotePath: viofoURLPath(f.FPath),
				Size:       f.Size,
				SizeKnown:  f.Size > 0,
			})
		case viofoAttrNormal:
			v.logger.Debug("recording not locked; ignoring", logging.String("path", f.FPath))
		}
	}
	return files, nil
}

// OpenDownload streams the recording body.
func (v *VIOFO) OpenDownload(ctx context.Context, file RemoteFile) (io.ReadCloser, error) {
	resp, err := doGet(ctx, v.client, v.base+file.RemotePath)
	if err != nil {
		return nil, fmt.Errorf("viofo download %s: %w", file.Name, err)
	}
	return resp.Body, nil
}

// DeleteRemote removes the recording with an HTTP DELETE on its URL.
func (v *VIOFO) DeleteRemote(ctx context.Context, file RemoteFile) error {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	url := v.base + file.RemotePath
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("viofo delete %s: build request: %w", file.Name, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("viofo delete %s: %w", file.Name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("viofo delete %s returned %d", file.Name, resp.StatusCode)
	}
	return nil
}

// viofoURLPath converts an on-card path like A:\Novatek\Movie\RO\x.MP4 to a URL path.
func viofoURLPath(fpath string) string {
	p := strings.TrimSpace(fpath)
	p = strings.TrimPrefix(p, "A:")
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
