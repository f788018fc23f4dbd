package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"libretto/internal/edition"
	"libretto/internal/render"
	"libretto/internal/segment"
	"libretto/internal/services/renderfarm"
	"libretto/internal/testsupport"
)

type fakeFarm struct {
	requests []renderfarm.StartRequest
	failFor  map[string]error
}

func (f *fakeFarm) Start(_ context.Context, req renderfarm.StartRequest) error {
	if err := f.failFor[req.Lang]; err != nil {
		return err
	}
	f.requests = append(f.requests, req)
	return nil
}

func setup(t *testing.T, farm *fakeFarm) (*edition.Store, *render.Coordinator, *edition.Edition) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coordinator := render.NewCoordinator(store, farm, nil)

	ctx := context.Background()
	ed := testsupport.NewEdition(t, store, "Artist", "Title")
	ed.SourceDurationSec = 200
	ed.SetWindow(12.3, 187.9)
	if err := store.Update(ctx, ed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.ReplaceSegments(ctx, ed.ID, []segment.Segment{
		{StartSec: 12.3, EndSec: 20, TextFinal: "primeira linha"},
		{StartSec: 20, EndSec: 30, TextFinal: "segunda linha"},
	}); err != nil {
		t.Fatalf("ReplaceSegments failed: %v", err)
	}
	return store, coordinator, ed
}

func TestDispatchPreviewUsesCaptionLanguage(t *testing.T) {
	farm := &fakeFarm{}
	_, coordinator, ed := setup(t, farm)

	if err := coordinator.DispatchPreview(context.Background(), ed); err != nil {
		t.Fatalf("DispatchPreview failed: %v", err)
	}
	if len(farm.requests) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(farm.requests))
	}
	req := farm.requests[0]
	if req.Lang != ed.CaptionLang {
		t.Fatalf("preview must use the edition's caption language, got %q", req.Lang)
	}
	if req.WindowStartSec != 12.3 || req.WindowEndSec != 187.9 {
		t.Fatalf("unexpected window: %v..%v", req.WindowStartSec, req.WindowEndSec)
	}
	// Captions are rebased into the window before dispatch.
	if got := gjson.Get(req.CaptionsJSON, "0.start_sec").Float(); got != 0 {
		t.Fatalf("expected window-relative captions, first start %v", got)
	}
}

func TestDispatchPreviewWithoutWindowConflicts(t *testing.T) {
	farm := &fakeFarm{}
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coordinator := render.NewCoordinator(store, farm, nil)
	ed := testsupport.NewEdition(t, store, "Artist", "Title")

	if err := coordinator.DispatchPreview(context.Background(), ed); err == nil {
		t.Fatal("expected error without a cut window")
	}
}

func TestDispatchAllIsolatesLanguageFailures(t *testing.T) {
	farm := &fakeFarm{failFor: map[string]error{"de": errors.New("farm rejected job")}}
	store, coordinator, ed := setup(t, farm)

	ctx := context.Background()
	languages := []string{"en", "pt", "es", "de", "fr", "it", "pl"}
	if err := coordinator.DispatchAll(ctx, ed, languages); err != nil {
		t.Fatalf("DispatchAll failed: %v", err)
	}

	jobs, err := store.ListRenderJobs(ctx, ed.ID)
	if err != nil {
		t.Fatalf("ListRenderJobs failed: %v", err)
	}
	if len(jobs) != 7 {
		t.Fatalf("expected 7 jobs, got %d", len(jobs))
	}

	for _, job := range jobs {
		switch job.Lang {
		case "de":
			if job.Status != edition.JobError {
				t.Fatalf("expected de job errored, got %s", job.Status)
			}
		default:
			if job.Status != edition.JobPending {
				t.Fatalf("expected %s job pending, got %s", job.Lang, job.Status)
			}
		}
	}
}

func TestAggregateCountsTerminalStates(t *testing.T) {
	farm := &fakeFarm{}
	store, coordinator, ed := setup(t, farm)

	ctx := context.Background()
	languages := []string{"en", "pt", "es", "de", "fr", "it", "pl"}
	if err := coordinator.DispatchAll(ctx, ed, languages); err != nil {
		t.Fatalf("DispatchAll failed: %v", err)
	}

	for _, lang := range languages {
		job, err := store.GetRenderJob(ctx, ed.ID, lang)
		if err != nil {
			t.Fatalf("GetRenderJob failed: %v", err)
		}
		if lang == "de" {
			job.Status = edition.JobError
			job.ErrorMessage = "render crashed"
		} else {
			job.Status = edition.JobCompleted
			job.OutputPath = "/renders/" + lang + ".mp4"
		}
		if _, err := store.UpsertRenderJob(ctx, job); err != nil {
			t.Fatalf("UpsertRenderJob failed: %v", err)
		}
	}

	agg, err := coordinator.AggregateJobs(ctx, ed.ID)
	if err != nil {
		t.Fatalf("AggregateJobs failed: %v", err)
	}
	want := render.Aggregate{Completed: 6, Pending: 0, Errored: 1, Total: 7}
	if agg != want {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if !agg.AllTerminal() || agg.Ready() {
		t.Fatalf("aggregate flags wrong: %+v", agg)
	}
}

func TestRetryLanguageLeavesOthersUntouched(t *testing.T) {
	farm := &fakeFarm{}
	store, coordinator, ed := setup(t, farm)

	ctx := context.Background()
	languages := []string{"en", "de"}
	if err := coordinator.DispatchAll(ctx, ed, languages); err != nil {
		t.Fatalf("DispatchAll failed: %v", err)
	}
	for _, lang := range languages {
		job, _ := store.GetRenderJob(ctx, ed.ID, lang)
		if lang == "de" {
			job.Status = edition.JobError
		} else {
			job.Status = edition.JobCompleted
			job.OutputPath = "/renders/en.mp4"
		}
		if _, err := store.UpsertRenderJob(ctx, job); err != nil {
			t.Fatalf("UpsertRenderJob failed: %v", err)
		}
	}

	if err := coordinator.RetryLanguage(ctx, ed, "de"); err != nil {
		t.Fatalf("RetryLanguage failed: %v", err)
	}

	de, _ := store.GetRenderJob(ctx, ed.ID, "de")
	if de.Status != edition.JobPending {
		t.Fatalf("expected de reset to pending, got %s", de.Status)
	}
	en, _ := store.GetRenderJob(ctx, ed.ID, "en")
	if en.Status != edition.JobCompleted || en.OutputPath != "/renders/en.mp4" {
		t.Fatalf("retry must not touch other jobs: %#v", en)
	}
}

func TestTranslatedCaptionsPreferredForOtherLanguages(t *testing.T) {
	farm := &fakeFarm{}
	store, coordinator, ed := setup(t, farm)

	ctx := context.Background()
	if _, err := store.UpsertTranslation(ctx, &edition.Translation{
		EditionID:    ed.ID,
		Lang:         "en",
		CaptionsJSON: `[{"position":0,"text_final":"first line"}]`,
	}); err != nil {
		t.Fatalf("UpsertTranslation failed: %v", err)
	}

	if err := coordinator.DispatchAll(ctx, ed, []string{"en"}); err != nil {
		t.Fatalf("DispatchAll failed: %v", err)
	}
	if len(farm.requests) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(farm.requests))
	}
	if got := gjson.Get(farm.requests[0].CaptionsJSON, "0.text_final").String(); got != "first line" {
		t.Fatalf("expected translated captions, got %q", got)
	}
}
