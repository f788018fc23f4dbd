// Package daemon ties the store, workflow manager, and HTTP server into a
// single-instance background process guarded by a file lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"libretto/internal/api"
	"libretto/internal/config"
	"libretto/internal/edition"
	"libretto/internal/logging"
	"libretto/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution through a flock in the log directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *edition.Store
	workflow *workflow.Manager
	server   *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *edition.Store, logger *slog.Logger, wf *workflow.Manager, server *api.Server) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil || server == nil {
		return nil, errors.New("daemon requires config, store, workflow manager, and server")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "librettod.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, launches the workflow manager, and
// begins serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another libretto daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	go func() {
		if err := d.server.Start(); err != nil {
			d.logger.Error("http server exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("libretto daemon started",
		"lock", d.lockPath,
		"addr", d.server.Addr(),
	)
	return nil
}

// Stop stops background processing, drains the HTTP server, and releases
// the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("http server shutdown failed", logging.Error(err))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("libretto daemon stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
