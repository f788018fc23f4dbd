package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"libretto/internal/api"
	"libretto/internal/config"
	"libretto/internal/edition"
	"libretto/internal/lifecycle"
	"libretto/internal/logging"
	"libretto/internal/notifications"
	"libretto/internal/preflight"
	"libretto/internal/render"
	"libretto/internal/services/renderfarm"
	"libretto/internal/services/transcriber"
	"libretto/internal/services/translator"
	"libretto/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	Version  string
}

// Run builds the full daemon wiring and blocks until a termination signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, check := range preflight.RunAll(signalCtx, cfg) {
		if check.Passed {
			logger.Debug("preflight check passed", "check", check.Name, "detail", check.Detail)
			continue
		}
		logger.Warn("preflight check failed", "check", check.Name, "detail", check.Detail)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "librettod.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := edition.Open(cfg)
	if err != nil {
		logger.Error("open edition store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	transcriberClient := transcriber.New(cfg, logger)
	translatorClient := translator.New(cfg, logger)
	farm := renderfarm.New(cfg, logger)

	languages := workflow.TargetLanguages(cfg.Pipeline.Languages, logger)
	coordinator := render.NewCoordinator(store, farm, logger)
	controller := lifecycle.NewController(store, coordinator, transcriberClient, notifier, logger, languages)

	manager := workflow.NewManager(cfg, store, logger,
		workflow.NewTranscriptionWatcher(controller, transcriberClient, logger),
		workflow.NewTranslationWatcher(store, translatorClient, languages, logger),
		workflow.NewPreviewWatcher(store, controller, farm, logger),
		workflow.NewBatchWatcher(store, controller, farm, logger),
	)

	server := api.NewServer(cfg.Paths.APIBind, api.Deps{
		Store:      store,
		Controller: controller,
		Languages:  languages,
		Version:    opts.Version,
		Logger:     logger,
	})

	d, err := New(cfg, store, logger, manager, server)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("libretto daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
