package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"dashcamtransporter/internal/capacity"
	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/deps"
)

// smbPort is the TCP port probed for SMB targets.
const smbPort = "445"

// CheckSettings reports whether the network credentials are filled in.
func CheckSettings(cfg *config.Config) Result {
	const name = "Settings"
	missing := cfg.MissingRequired()
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("model %s", cfg.Dashcam.Model)}
}

// CheckWebDAV verifies WebDAV connectivity and authentication with a
// depth-0 PROPFIND on the base URL.
func CheckWebDAV(ctx context.Context, baseURL, username, password string) Result {
	const name = "WebDAV"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, "PROPFIND", base+"/", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("Depth", "0")
	req.SetBasicAuth(username, password)

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMultiStatus:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (check username and app password)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckSMB verifies that the SMB host accepts TCP connections.
func CheckSMB(ctx context.Context, host string) Result {
	const name = "SMB"
	host = strings.TrimSpace(host)
	if host == "" {
		return Result{Name: name, Detail: "missing host"}
	}
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, smbPort)
	}
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", addr)}
}

// CheckS3 verifies that the object store endpoint accepts TCP connections.
// The default AWS endpoint is not probed.
func CheckS3(ctx context.Context, endpoint, bucket string) Result {
	const name = "S3"
	if strings.TrimSpace(bucket) == "" {
		return Result{Name: name, Detail: "missing bucket"}
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s on the AWS endpoint (not probed)", bucket)}
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid endpoint %q", endpoint)}
	}
	addr := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "http" {
			port = "80"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s at %s reachable", bucket, addr)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports the free space under dir against the safety margin.
func CheckFreeSpace(dir string, margin int64) Result {
	const name = "Free space"
	guard := capacity.NewGuard(dir, margin)
	free, err := guard.FreeBytes()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs failed: %v", err)}
	}
	detail := fmt.Sprintf("%s free, %s reserved", humanize.IBytes(free), humanize.IBytes(uint64(guard.Margin())))
	if !capacity.Fits(free, 0, guard.Margin()) {
		return Result{Name: name, Detail: detail + " (below safety margin)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries the transporter needs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.Check(ctx, []deps.Requirement{
		{
			Name:        "nmcli",
			Command:     cfg.WiFi.NmcliBinary,
			Description: "Required to switch between dashcam and home networks",
			VersionArgs: []string{"--version"},
		},
	})
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connection timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connection timed out"
	}
	return err.Error()
}
