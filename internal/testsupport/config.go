package testsupport

import (
	"path/filepath"
	"testing"

	"libretto/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageDir = filepath.Join(base, "storage")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLanguages overrides the target language set on the test config.
func WithLanguages(languages ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Languages = languages
	}
}

// WithWorkerURL points all three worker base URLs at the same address,
// typically an httptest server.
func WithWorkerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workers.TranscriberURL = url
		b.cfg.Workers.TranslatorURL = url
		b.cfg.Workers.RenderfarmURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageDir)
}
