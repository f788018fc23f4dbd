package config

import (
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() {
	c.Paths.StorageDir = expandPath(c.Paths.StorageDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.Workers.TranscriberURL = trimURL(c.Workers.TranscriberURL)
	c.Workers.TranslatorURL = trimURL(c.Workers.TranslatorURL)
	c.Workers.RenderfarmURL = trimURL(c.Workers.RenderfarmURL)
	if c.Workers.RequestTimeoutSeconds <= 0 {
		c.Workers.RequestTimeoutSeconds = defaultWorkerTimeout
	}

	normalized := make([]string, 0, len(c.Pipeline.Languages))
	seen := make(map[string]struct{}, len(c.Pipeline.Languages))
	for _, lang := range c.Pipeline.Languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		normalized = append(normalized, lang)
	}
	c.Pipeline.Languages = normalized

	if c.Pipeline.PollIntervalSeconds <= 0 {
		c.Pipeline.PollIntervalSeconds = defaultPollInterval
	}
	if c.Pipeline.ErrorRetryIntervalSeconds <= 0 {
		c.Pipeline.ErrorRetryIntervalSeconds = defaultErrorRetryInterval
	}
	if c.Pipeline.MinFreeSpaceGiB < 0 {
		c.Pipeline.MinFreeSpaceGiB = 0
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func trimURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path)
}
