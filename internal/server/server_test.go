package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkwave/pdfcast/internal/config"
	"github.com/inkwave/pdfcast/internal/pipeline"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := config.Default()
	audio := NewAudioStore(nil, "", "", t.TempDir())
	tasks := NewTaskManager(log, nil, audio, pipeline.Pipeline{}, 2)
	t.Cleanup(func() { tasks.baseCancel() })
	return New(log, &cfg, nil, audio, tasks)
}

func TestCreateRejectsUnsupportedContentType(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/podcasts", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestCreateRejectsEmptyJSON(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/podcasts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "url or text") {
		t.Errorf("body = %q, want mention of url or text", rec.Body.String())
	}
}

func TestCancelUnknownJob(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/podcasts/01ARZ3NDEKTSV4RRFFQ69G5FAV/cancel", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAudioStoreLocal(t *testing.T) {
	dir := t.TempDir()
	as := NewAudioStore(nil, "", "", dir)
	if !as.Local() {
		t.Fatal("expected local mode when bucket is empty")
	}

	src := filepath.Join(t.TempDir(), "out.mp3")
	if err := os.WriteFile(src, []byte("mp3 bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	key, url, err := as.Store(t.Context(), "abc123", src)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if key != "audio/abc123.mp3" {
		t.Errorf("key = %q", key)
	}
	if url != "/podcasts/abc123/audio" {
		t.Errorf("url = %q", url)
	}
	data, err := os.ReadFile(as.LocalPath("abc123"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "mp3 bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestNewPodcastID(t *testing.T) {
	a, err := NewPodcastID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewPodcastID()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 26 {
		t.Errorf("id length = %d, want 26", len(a))
	}
	if a == b {
		t.Error("ids should be unique")
	}
}
