package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func segmentsFile(t *testing.T) string {
	t.Helper()
	data, err := json.MarshalIndent(sampleSegments, "", "  ")
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	path := filepath.Join(t.TempDir(), "segments.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	return path
}

func TestLifecycleCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	id := registerEdition(t, env)
	arg := fmt.Sprint(id)

	out, _, err := runCLI(t, env, "download", arg)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "is now downloading")

	out, _, err = runCLI(t, env, "source-ready", arg, "0:03:20,000")
	if err != nil {
		t.Fatalf("source-ready: %v", err)
	}
	requireContains(t, out, "is now lyrics")

	out, _, err = runCLI(t, env, "lyrics", "approve", arg)
	if err != nil {
		t.Fatalf("lyrics approve: %v", err)
	}
	requireContains(t, out, "is now transcribing")

	if _, err := env.controller.ImportTranscription(context.Background(), id, "balanced", sampleSegments); err != nil {
		t.Fatalf("ImportTranscription: %v", err)
	}

	out, _, err = runCLI(t, env, "segments", "submit", arg, segmentsFile(t))
	if err != nil {
		t.Fatalf("segments submit: %v", err)
	}
	requireContains(t, out, "is now translating")
	requireContains(t, out, "window 0:12..3:07")

	out, _, err = runCLI(t, env, "cut", arg, "20", "1:20")
	if err != nil {
		t.Fatalf("cut: %v", err)
	}
	requireContains(t, out, "window set to 0:20..1:20")

	if _, _, err := runCLI(t, env, "cut", arg, "20"); err == nil {
		t.Fatal("expected partial cut boundaries to error")
	}

	out, _, err = runCLI(t, env, "preview", arg)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "is now preview_rendering")

	if _, err := env.controller.PreviewCompleted(context.Background(), id); err != nil {
		t.Fatalf("PreviewCompleted: %v", err)
	}

	out, _, err = runCLI(t, env, "approve", arg)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	requireContains(t, out, "is now rendering_all")

	out, _, err = runCLI(t, env, "renders", arg)
	if err != nil {
		t.Fatalf("renders: %v", err)
	}
	requireContains(t, out, "en")
	requireContains(t, out, "it")

	out, _, err = runCLI(t, env, "retry", arg, "en")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	requireContains(t, out, "is now rendering_all")

	if _, _, err := runCLI(t, env, "export", arg); err == nil {
		t.Fatal("expected export to fail before the batch settles")
	}
}

func TestReviseReopensEditing(t *testing.T) {
	env := setupCLITestEnv(t)
	id := registerEdition(t, env)
	advanceToAligning(t, env, id)
	ctx := context.Background()

	if _, err := env.controller.SubmitSegments(ctx, id, sampleSegments); err != nil {
		t.Fatalf("SubmitSegments: %v", err)
	}
	if _, err := env.controller.RequestPreview(ctx, id); err != nil {
		t.Fatalf("RequestPreview: %v", err)
	}
	if _, err := env.controller.PreviewCompleted(ctx, id); err != nil {
		t.Fatalf("PreviewCompleted: %v", err)
	}

	out, _, err := runCLI(t, env, "revise", fmt.Sprint(id), "tighten", "the", "opening")
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	requireContains(t, out, "is now revision_requested")
}

func TestApproveRequiresPreviewReady(t *testing.T) {
	env := setupCLITestEnv(t)
	id := registerEdition(t, env)

	if _, _, err := runCLI(t, env, "approve", fmt.Sprint(id)); err == nil {
		t.Fatal("expected approve to fail before a preview is rendered")
	}
}

func TestSourceReadyRejectsMalformedDuration(t *testing.T) {
	env := setupCLITestEnv(t)
	id := registerEdition(t, env)

	if _, _, err := runCLI(t, env, "source-ready", fmt.Sprint(id), "not-a-time"); err == nil {
		t.Fatal("expected invalid duration to error")
	}
}
