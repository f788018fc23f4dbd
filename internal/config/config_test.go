package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"libretto/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Pipeline.Languages) != 7 {
		t.Fatalf("expected 7 default languages, got %d", len(cfg.Pipeline.Languages))
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
storage_dir = "` + dir + `/storage"
log_dir = "` + dir + `/logs"
api_bind = "127.0.0.1:0"

[workers]
transcriber_url = "http://localhost:9000/"
translator_url = "http://localhost:9001"
renderfarm_url = "http://localhost:9002"

[pipeline]
languages = ["EN", "pt", "en", " de "]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, read, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !read || resolved != path {
		t.Fatalf("read=%v resolved=%q", read, resolved)
	}
	if cfg.Workers.TranscriberURL != "http://localhost:9000" {
		t.Fatalf("trailing slash kept: %q", cfg.Workers.TranscriberURL)
	}
	want := []string{"en", "pt", "de"}
	if len(cfg.Pipeline.Languages) != len(want) {
		t.Fatalf("languages = %v", cfg.Pipeline.Languages)
	}
	for i, lang := range want {
		if cfg.Pipeline.Languages[i] != lang {
			t.Fatalf("languages = %v, want %v", cfg.Pipeline.Languages, want)
		}
	}
	if cfg.Pipeline.PollIntervalSeconds == 0 {
		t.Fatal("poll interval default not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.RenderfarmURL = "not a url"
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "renderfarm_url") || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("unexpected validation detail: %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	cfg, _, read, err := config.Load(path)
	if err != nil || !read {
		t.Fatalf("sample config does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
