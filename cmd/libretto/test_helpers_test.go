package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"libretto/internal/api"
	"libretto/internal/edition"
	"libretto/internal/lifecycle"
	"libretto/internal/notifications"
	"libretto/internal/render"
	"libretto/internal/segment"
	"libretto/internal/services/renderfarm"
	"libretto/internal/testsupport"
)

type fakeStarter struct{}

func (fakeStarter) Start(context.Context, *edition.Edition) error { return nil }

type fakeFarm struct{}

func (fakeFarm) Start(context.Context, renderfarm.StartRequest) error { return nil }

var cliLanguages = []string{"en", "it"}

var sampleSegments = []segment.Segment{
	{StartSec: 12.3, EndSec: 90, TextFinal: "prima riga", Flag: segment.FlagHigh, Confidence: 0.9},
	{StartSec: 90, EndSec: 187.9, TextFinal: "seconda riga", Flag: segment.FlagMedium, Confidence: 0.7},
}

type cliTestEnv struct {
	store      *edition.Store
	controller *lifecycle.Controller
	server     *httptest.Server
}

// setupCLITestEnv runs the real router over an in-memory lifecycle so
// commands exercise the same HTTP surface the daemon serves.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coordinator := render.NewCoordinator(store, fakeFarm{}, nil)
	controller := lifecycle.NewController(store, coordinator, fakeStarter{}, notifications.NewService(cfg), nil, cliLanguages)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store:      store,
		Controller: controller,
		Languages:  cliLanguages,
		Version:    "test",
		StartTime:  time.Now(),
	}))
	t.Cleanup(srv.Close)

	return &cliTestEnv{store: store, controller: controller, server: srv}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if env != nil {
		args = append([]string{"--addr", env.server.URL}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// registerEdition creates an edition through the CLI and returns its ID.
func registerEdition(t *testing.T, env *cliTestEnv) int64 {
	t.Helper()
	out, _, err := runCLI(t, env, "new",
		"--artist", "Callas",
		"--title", "Casta Diva",
		"--source", "https://video.example/casta-diva",
		"--lang", "it",
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var id int64
	if _, err := fmt.Sscanf(out, "edition %d registered", &id); err != nil || id <= 0 {
		t.Fatalf("could not parse edition id from %q", out)
	}
	return id
}

// advanceToAligning pushes an edition through the worker-owned stages.
func advanceToAligning(t *testing.T, env *cliTestEnv, id int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := env.controller.SourceReady(ctx, id, 200); err != nil {
		t.Fatalf("SourceReady: %v", err)
	}
	if _, err := env.controller.ApproveLyrics(ctx, id); err != nil {
		t.Fatalf("ApproveLyrics: %v", err)
	}
	if _, err := env.controller.ImportTranscription(ctx, id, "balanced", sampleSegments); err != nil {
		t.Fatalf("ImportTranscription: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
