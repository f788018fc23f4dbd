package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Workers contains the base URLs and timeouts of the external workers the
// daemon polls: transcription, translation, and rendering.
type Workers struct {
	TranscriberURL        string `toml:"transcriber_url"`
	TranslatorURL         string `toml:"translator_url"`
	RenderfarmURL         string `toml:"renderfarm_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Pipeline contains edit-pipeline tunables.
type Pipeline struct {
	// Languages is the target caption language set for the full render
	// fan-out. The coordinator accepts any list; this is just the default.
	Languages                 []string `toml:"languages"`
	PollIntervalSeconds       int      `toml:"poll_interval_seconds"`
	ErrorRetryIntervalSeconds int      `toml:"error_retry_interval_seconds"`
	MinFreeSpaceGiB           int      `toml:"min_free_space_gib"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workers       Workers       `toml:"workers"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/libretto/config.toml")
}

// Load reads configuration from path, falling back to the default location
// and then to defaults when no file exists. It returns the config, the path
// that was consulted, and whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	resolved := path
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	cfg := Default()

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if path != "" {
			return nil, resolved, false, fmt.Errorf("config file %s does not exist", resolved)
		}
		cfg.normalize()
		if err := cfg.Validate(); err != nil {
			return nil, resolved, false, err
		}
		return &cfg, resolved, false, nil
	case err != nil:
		return nil, resolved, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, true, err
	}
	return &cfg, resolved, true, nil
}

// EnsureDirectories creates the storage and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
