package dashcam

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGarminListFiltersFavoriteVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/virb" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["command"] != "mediaList" {
			t.Fatalf("unexpected command %v", payload["command"])
		}
		_, _ = io.WriteString(w, `{"result":1,"media":[
			{"name":"VIRB0001.MP4","url":"http://cam/DCIM/100_VIRB/VIRB0001.MP4","fileSize":100,"fav":"true","type":"video"},
			{"name":"VIRB0002.MP4","url":"/DCIM/100_VIRB/VIRB0002.MP4","fileSize":200,"fav":"false","type":"video"},
			{"name":"VIRB0003.JPG","url":"/DCIM/100_VIRB/VIRB0003.JPG","fileSize":10,"fav":1,"type":"photo"},
			{"Name":"","Url":"/DCIM/100_VIRB/VIRB0004.MOV","FileSize":"300","Fav":1},
			{"name":"VIRB0005.MP4","url":"","fav":"yes","type":"video"},
			{"name":"VIRB0006.MP4","url":"/DCIM/100_VIRB/VIRB0006.MP4","fileSize":0,"fav":"true","type":"video"}
		]}`)
	}))
	defer server.Close()

	source := NewGarminVirb(server.URL, server.Client(), nil)
	files, err := source.ListLockedFiles(context.Background())
	if err != nil {
		t.Fatalf("ListLockedFiles returned error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 favourite videos, got %d: %+v", len(files), files)
	}
	if files[0].Name != "VIRB0001.MP4" || files[0].Size != 100 || !files[0].SizeKnown {
		t.Fatalf("unexpected first file %+v", files[0])
	}
	if files[1].Name != "VIRB0004.MOV" || files[1].Size != 300 {
		t.Fatalf("unexpected second file %+v", files[1])
	}
	if files[2].Name != "VIRB0006.MP4" || files[2].SizeKnown {
		t.Fatalf("zero size should be reported as unknown: %+v", files[2])
	}
}

func TestGarminDeleteFallsBackToDeleteFile(t *testing.T) {
	var commands []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload garminDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		commands = append(commands, payload.Command)
		if len(payload.Files) != 1 || payload.Files[0] != "/DCIM/100_VIRB/VIRB0001.MP4" {
			t.Fatalf("unexpected files %v", payload.Files)
		}
		if payload.Command == "deleteFileGroup" {
			_, _ = io.WriteString(w, `{"result":0}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":1}`)
	}))
	defer server.Close()

	source := NewGarminVirb(server.URL, server.Client(), nil)
	file := RemoteFile{Name: "VIRB0001.MP4", RemotePath: "http://10.1.0.180/DCIM/100_VIRB/VIRB0001.MP4"}
	if err := source.DeleteRemote(context.Background(), file); err != nil {
		t.Fatalf("DeleteRemote returned error: %v", err)
	}
	if len(commands) != 2 || commands[0] != "deleteFileGroup" || commands[1] != "deleteFile" {
		t.Fatalf("unexpected command sequence %v", commands)
	}
}

func TestGarminDeleteFailsWhenBothCommandsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":0}`)
	}))
	defer server.Close()

	source := NewGarminVirb(server.URL, server.Client(), nil)
	if err := source.DeleteRemote(context.Background(), RemoteFile{Name: "x", RemotePath: "/x.MP4"}); err == nil {
		t.Fatal("expected delete failure")
	}
}

func TestGarminDownloadResolvesRelativePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/DCIM/x.MP4" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, "data")
	}))
	defer server.Close()

	source := NewGarminVirb(server.URL, server.Client(), nil)
	body, err := source.OpenDownload(context.Background(), RemoteFile{Name: "x.MP4", RemotePath: "DCIM/x.MP4"})
	if err != nil {
		t.Fatalf("OpenDownload returned error: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "data" {
		t.Fatalf("unexpected body %q", data)
	}
}
