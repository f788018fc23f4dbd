// Package logging builds the slog loggers used across the daemon and CLI.
// Two output formats are supported: a compact console format for humans and
// JSON for ingestion. Field name constants keep structured keys consistent
// between components.
package logging
