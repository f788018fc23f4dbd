// Package preflight verifies the daemon's runtime requirements before the
// workflow starts: directory access, free disk space, and worker
// reachability. Checks report rather than abort; the daemon decides what is
// fatal.
package preflight

import (
	"context"

	"libretto/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Worker checks only run when the corresponding URL is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Storage directory", cfg.Paths.StorageDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Pipeline.MinFreeSpaceGiB > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.StorageDir, cfg.Pipeline.MinFreeSpaceGiB))
	}

	if cfg.Workers.TranscriberURL != "" {
		results = append(results, CheckWorker(ctx, "Transcriber", cfg.Workers.TranscriberURL))
	}
	if cfg.Workers.TranslatorURL != "" {
		results = append(results, CheckWorker(ctx, "Translator", cfg.Workers.TranslatorURL))
	}
	if cfg.Workers.RenderfarmURL != "" {
		results = append(results, CheckWorker(ctx, "Renderfarm", cfg.Workers.RenderfarmURL))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
