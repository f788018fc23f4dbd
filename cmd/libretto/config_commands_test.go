package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, nil, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "api_bind")

	if _, _, err := runCLI(t, nil, "config", "init", "--path", path); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, nil, "config", "init", "--path", path); err != nil {
		t.Fatalf("config init: %v", err)
	}

	out, _, err := runCLI(t, nil, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "api_bind")
	requireContains(t, out, "[workers]")
}

func TestConfigShowJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, _, err := runCLI(t, nil, "--json", "config", "show")
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}
	requireContains(t, out, "\"Paths\"")
}
