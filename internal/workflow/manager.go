package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"libretto/internal/config"
	"libretto/internal/edition"
	"libretto/internal/logging"
	"libretto/internal/services"
)

// Watcher observes the external worker behind one watched status and feeds
// the outcome back through the lifecycle controller. A watcher never blocks
// on worker completion; it only inspects current state.
type Watcher interface {
	Status() edition.Status
	Observe(ctx context.Context, ed *edition.Edition) error
}

// Manager polls the store for editions parked in watched statuses and runs
// the matching watcher. Polling stops per edition as soon as it reaches a
// gate or terminal state, because such editions no longer match any watched
// status.
type Manager struct {
	cfg    *config.Config
	store  *edition.Store
	logger *slog.Logger

	pollInterval  time.Duration
	errorInterval time.Duration

	watchers   map[edition.Status]Watcher
	watchOrder []edition.Status

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager over the given watchers.
func NewManager(cfg *config.Config, store *edition.Store, logger *slog.Logger, watchers ...Watcher) *Manager {
	pollInterval := time.Duration(cfg.Pipeline.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	errorInterval := time.Duration(cfg.Pipeline.ErrorRetryIntervalSeconds) * time.Second
	if errorInterval <= 0 {
		errorInterval = pollInterval
	}

	m := &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  pollInterval,
		errorInterval: errorInterval,
		watchers:      make(map[edition.Status]Watcher, len(watchers)),
	}
	for _, watcher := range watchers {
		status := watcher.Status()
		if _, ok := m.watchers[status]; ok {
			continue
		}
		m.watchers[status] = watcher
		m.watchOrder = append(m.watchOrder, status)
	}
	return m
}

// Start begins background polling.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if len(m.watchOrder) == 0 {
		return errors.New("no watchers configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background polling and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		interval := m.pollInterval
		if err := m.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.logger.Error("poll tick failed", logging.Error(err))
			interval = m.errorInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// Tick observes every edition currently parked in a watched status once.
// Exported so tests and CLI commands can drive the loop deterministically.
func (m *Manager) Tick(ctx context.Context) error {
	editions, err := m.store.List(ctx, m.watchOrder...)
	if err != nil {
		return err
	}
	for _, ed := range editions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		watcher := m.watchers[ed.Status]
		if watcher == nil {
			continue
		}
		m.observe(ctx, watcher, ed)
	}
	return ctx.Err()
}

func (m *Manager) observe(ctx context.Context, watcher Watcher, ed *edition.Edition) {
	obsCtx := services.WithStage(services.WithEditionID(ctx, ed.ID), string(ed.Status))
	logger := logging.WithContext(obsCtx, m.logger)
	err := watcher.Observe(obsCtx, ed)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrConflict):
		// The edition moved between the list read and the observation;
		// the stale result is discarded.
		logger.Debug("observation discarded", logging.Error(err))
	case services.IsRetryable(err):
		logger.Debug("worker not ready", logging.Error(err))
	default:
		logger.Warn("observation failed", logging.Error(err))
	}
}
