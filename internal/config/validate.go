package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.StorageDir == "" {
		problems = append(problems, "paths.storage_dir must not be empty")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if c.Paths.APIBind != "" {
		if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
			problems = append(problems, fmt.Sprintf("paths.api_bind %q is not host:port", c.Paths.APIBind))
		}
	}

	for key, value := range map[string]string{
		"workers.transcriber_url": c.Workers.TranscriberURL,
		"workers.translator_url":  c.Workers.TranslatorURL,
		"workers.renderfarm_url":  c.Workers.RenderfarmURL,
	} {
		if value == "" {
			problems = append(problems, key+" must not be empty")
			continue
		}
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("%s %q is not an absolute URL", key, value))
		}
	}

	if len(c.Pipeline.Languages) == 0 {
		problems = append(problems, "pipeline.languages must list at least one language")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
