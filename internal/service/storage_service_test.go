package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fypquiz_backend/internal/config"
)

func newLocalStorage(t *testing.T) (*StorageService, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir, PublicBaseURL: "http://cdn.test"}}
	return NewStorageService(cfg), dir
}

func TestStorageService_SaveNarrationLocal(t *testing.T) {
	svc, dir := newLocalStorage(t)
	ctx := context.Background()

	url, err := svc.SaveNarration(ctx, "sess-1", 0, []byte("ID3fake"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "http://cdn.test/uploads/audio/sess-1/question-1.mp3" {
		t.Fatalf("url = %s", url)
	}
	path := filepath.Join(dir, "audio", "sess-1", "question-1.mp3")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	if key := svc.KeyFromURL(url); key != "audio/sess-1/question-1.mp3" {
		t.Fatalf("key = %q", key)
	}
	svc.DeleteURLs(ctx, []string{url, "https://elsewhere/x.mp3"})
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file not deleted: %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	svc, _ := newLocalStorage(t)
	if err := svc.Delete(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}
