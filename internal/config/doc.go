// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and the CLI. Defaults are usable out of the box for
// a local single-user setup; worker URLs point at loopback ports.
package config
