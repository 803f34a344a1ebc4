package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWebDAV_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.Method != "PROPFIND" || !ok || user != "me" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()

	result := CheckWebDAV(context.Background(), srv.URL, "me", "pw")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckWebDAV_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckWebDAV(context.Background(), srv.URL, "me", "wrong")
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
}

func TestCheckWebDAV_MissingURL(t *testing.T) {
	if result := CheckWebDAV(context.Background(), "", "me", "pw"); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckSMB(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen not permitted: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if result := CheckSMB(context.Background(), ln.Addr().String()); !result.Passed {
		t.Fatalf("expected reachable host, got %s", result.Detail)
	}
	if result := CheckSMB(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing host")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	if result := CheckFreeSpace(t.TempDir(), 0); !result.Passed {
		t.Fatalf("expected free space in temp dir, got %s", result.Detail)
	}
	if result := CheckFreeSpace(t.TempDir(), 1<<62); result.Passed {
		t.Fatal("expected failure for an impossible margin")
	}
}

func TestRunAllSkipsDisabledTargets(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DownloadDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	if err := os.MkdirAll(cfg.LockedDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if r.Name == "SMB" || r.Name == "WebDAV" {
			t.Fatalf("disabled target %s should not be checked", r.Name)
		}
	}
	joined := strings.Join(names, ",")
	if joined != "Settings,Download directory,State directory,Free space,Upload targets" {
		t.Fatalf("unexpected checks %s", joined)
	}
	if results[0].Passed {
		t.Fatal("settings without credentials should fail")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.WiFi.NmcliBinary = "clearly-not-present-nmcli"
	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 1 || statuses[0].Available {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestRunAllProbesEnabledWebDAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()
	cfg := testsupport.NewConfig(t, testsupport.WithWebDAV(srv.URL), testsupport.WithModel(config.ModelGarminVirb))

	byName := map[string]Result{}
	for _, r := range RunAll(context.Background(), cfg) {
		byName[r.Name] = r
	}
	if r, ok := byName["WebDAV"]; !ok || !r.Passed {
		t.Fatalf("expected passing WebDAV check, got %+v", byName)
	}
	if _, ok := byName["Upload targets"]; ok {
		t.Fatal("upload target warning must not appear with WebDAV enabled")
	}
	if r := byName["Settings"]; !r.Passed || !strings.Contains(r.Detail, config.ModelGarminVirb) {
		t.Fatalf("unexpected settings result %+v", r)
	}
}

func TestCheckSystemDepsReadsVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.WiFi.NmcliBinary = testsupport.StubBinary(t, testsupport.BaseDir(cfg), "nmcli", `echo "nmcli tool, version 1.42.4"`)

	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 1 || !statuses[0].Available || statuses[0].Version != "nmcli tool, version 1.42.4" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestCheckS3(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen not permitted: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if r := CheckS3(context.Background(), "http://"+ln.Addr().String(), "cams"); !r.Passed {
		t.Fatalf("expected reachable endpoint, got %s", r.Detail)
	}
	if r := CheckS3(context.Background(), "", "cams"); !r.Passed || !strings.Contains(r.Detail, "not probed") {
		t.Fatalf("unexpected default endpoint result %+v", r)
	}
	if r := CheckS3(context.Background(), "http://127.0.0.1:9000", ""); r.Passed {
		t.Fatal("expected failure without a bucket")
	}
	if r := CheckS3(context.Background(), "::not a url", "cams"); r.Passed {
		t.Fatal("expected failure for an invalid endpoint")
	}
}
