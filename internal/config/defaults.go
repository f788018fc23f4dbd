package config

const (
	defaultStorageDir         = "~/.local/share/libretto/storage"
	defaultLogDir             = "~/.local/share/libretto/logs"
	defaultAPIBind            = "127.0.0.1:7719"
	defaultTranscriberURL     = "http://127.0.0.1:8750"
	defaultTranslatorURL      = "http://127.0.0.1:8751"
	defaultRenderfarmURL      = "http://127.0.0.1:8752"
	defaultWorkerTimeout      = 30
	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultMinFreeSpaceGiB    = 5
	defaultNtfyTimeout        = 10
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// defaultLanguages is the product's supported caption language set.
var defaultLanguages = []string{"en", "pt", "es", "de", "fr", "it", "pl"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Workers: Workers{
			TranscriberURL:        defaultTranscriberURL,
			TranslatorURL:         defaultTranslatorURL,
			RenderfarmURL:         defaultRenderfarmURL,
			RequestTimeoutSeconds: defaultWorkerTimeout,
		},
		Pipeline: Pipeline{
			Languages:                 append([]string{}, defaultLanguages...),
			PollIntervalSeconds:       defaultPollInterval,
			ErrorRetryIntervalSeconds: defaultErrorRetryInterval,
			MinFreeSpaceGiB:           defaultMinFreeSpaceGiB,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
