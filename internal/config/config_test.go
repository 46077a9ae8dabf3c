package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, "storage:\n  type: minio\n")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Narration.InitialBatch != 3 || cfg.Narration.BatchSize != 2 {
		t.Errorf("narration batches = %d/%d", cfg.Narration.InitialBatch, cfg.Narration.BatchSize)
	}
	if cfg.Narration.BatchDelay != 100*time.Millisecond {
		t.Errorf("batch delay = %v", cfg.Narration.BatchDelay)
	}
	if cfg.Quiz.GenerationTimeout != 60*time.Second {
		t.Errorf("generation timeout = %v", cfg.Quiz.GenerationTimeout)
	}
	if cfg.JWT.ExpireTime != 72*time.Hour {
		t.Errorf("jwt expire = %v", cfg.JWT.ExpireTime)
	}
	if len(cfg.Blog.PreferredDays) != 3 || cfg.Blog.PreferredTime != "10:00" {
		t.Errorf("blog schedule = %v %q", cfg.Blog.PreferredDays, cfg.Blog.PreferredTime)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: minio
quiz:
  generation_timeout: 90s
  default_questions: 5
narration:
  batch_delay: 250ms
  requests_per_second: 2.5
jwt:
  expire_hours: 1
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Quiz.GenerationTimeout != 90*time.Second || cfg.Quiz.DefaultQuestions != 5 {
		t.Errorf("quiz = %+v", cfg.Quiz)
	}
	if cfg.Narration.BatchDelay != 250*time.Millisecond || cfg.Narration.RequestsPerSecond != 2.5 {
		t.Errorf("narration = %+v", cfg.Narration)
	}
	if cfg.JWT.ExpireTime != time.Hour {
		t.Errorf("jwt expire = %v", cfg.JWT.ExpireTime)
	}
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\nstorage:\n  type: minio\n")

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short secret in release mode")
	}
}
