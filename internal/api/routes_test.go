package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

var targetLanguages = []string{"en", "it"}

var sampleSegments = []segment.Segment{
	{StartSec: 12.3, EndSec: 90, TextFinal: "prima riga", Flag: segment.FlagHigh, Confidence: 0.9},
	{StartSec: 90, EndSec: 187.9, TextFinal: "seconda riga", Flag: segment.FlagMedium, Confidence: 0.7},
}

type fixture struct {
	router     http.Handler
	store      *edition.Store
	controller *lifecycle.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coordinator := render.NewCoordinator(store, fakeFarm{}, nil)
	controller := lifecycle.NewController(store, coordinator, fakeStarter{}, notifications.NewService(cfg), nil, targetLanguages)
	router := api.NewRouter(api.Deps{
		Store:      store,
		Controller: controller,
		Languages:  targetLanguages,
		Version:    "test",
		StartTime:  time.Now(),
	})
	return &fixture{router: router, store: store, controller: controller}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createEdition(t *testing.T) int64 {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/editions", api.CreateEditionRequest{
		Artist:      "Callas",
		Title:       "Casta Diva",
		SourceURL:   "https://video.example/casta-diva",
		CaptionLang: "it",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.EditionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.ID
}

// advanceToAligning pushes the edition through the worker-driven stages the
// HTTP surface does not own.
func (f *fixture) advanceToAligning(t *testing.T, id int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.controller.SourceReady(ctx, id, 200); err != nil {
		t.Fatalf("SourceReady failed: %v", err)
	}
	if _, err := f.controller.ApproveLyrics(ctx, id); err != nil {
		t.Fatalf("ApproveLyrics failed: %v", err)
	}
	if _, err := f.controller.ImportTranscription(ctx, id, "balanced", sampleSegments); err != nil {
		t.Fatalf("ImportTranscription failed: %v", err)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Fatalf("unexpected health %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestCreateAndListEditions(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)

	rec := f.do(t, http.MethodGet, "/v1/editions?status=awaiting", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var resp api.EditionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Editions) != 1 || resp.Editions[0].ID != id {
		t.Fatalf("unexpected list %+v", resp)
	}
	if resp.Editions[0].CaptionLang != "it" {
		t.Fatalf("expected normalized caption lang, got %q", resp.Editions[0].CaptionLang)
	}

	rec = f.do(t, http.MethodGet, "/v1/editions?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/editions", api.CreateEditionRequest{Artist: "Callas"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSegmentSubmissionDerivesWindow(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)
	f.advanceToAligning(t, id)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/editions/%d/segments", id),
		api.SegmentsRequest{Segments: sampleSegments})
	if rec.Code != http.StatusOK {
		t.Fatalf("segments returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.EditionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "translating" {
		t.Fatalf("expected translating, got %s", resp.Status)
	}
	if resp.Window == nil || resp.Window.StartSec != 12.3 || resp.Window.EndSec != 187.9 {
		t.Fatalf("unexpected window %+v", resp.Window)
	}
}

func TestCutOverrideAndRederive(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)
	f.advanceToAligning(t, id)
	f.do(t, http.MethodPut, fmt.Sprintf("/v1/editions/%d/segments", id),
		api.SegmentsRequest{Segments: sampleSegments})

	start, end := 20.0, 80.0
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/cut", id),
		api.CutRequest{StartSec: &start, EndSec: &end})
	if rec.Code != http.StatusOK {
		t.Fatalf("cut returned %d: %s", rec.Code, rec.Body.String())
	}

	// Half an override is rejected before anything changes.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/cut", id),
		api.CutRequest{StartSec: &start})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial override, got %d", rec.Code)
	}

	// Empty body re-derives from stored segments.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/cut", id), api.CutRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("re-derive returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.EditionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Window == nil || resp.Window.StartSec != 12.3 {
		t.Fatalf("unexpected window after re-derive %+v", resp.Window)
	}
}

func TestApproveRequiresRenderedPreview(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)
	f.advanceToAligning(t, id)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/approve", id), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReviseRequiresNotes(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/revise", id), api.ReviseRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetEditionDetail(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)
	f.advanceToAligning(t, id)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/v1/editions/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	var resp api.EditionDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "aligning" || len(resp.Segments) != 2 {
		t.Fatalf("unexpected detail %+v", resp)
	}

	rec = f.do(t, http.MethodGet, "/v1/editions/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteEdition(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/v1/editions/%d", id), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/v1/editions/%d", id), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestExportGatedUntilReady(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)
	f.advanceToAligning(t, id)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/v1/editions/%d/export", id), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 before done, got %d", rec.Code)
	}

	// Drive to done with completed artifacts and a translation.
	ctx := context.Background()
	if _, err := f.controller.SubmitSegments(ctx, id, sampleSegments); err != nil {
		t.Fatalf("SubmitSegments failed: %v", err)
	}
	if _, err := f.controller.RequestPreview(ctx, id); err != nil {
		t.Fatalf("RequestPreview failed: %v", err)
	}
	if _, err := f.controller.PreviewCompleted(ctx, id); err != nil {
		t.Fatalf("PreviewCompleted failed: %v", err)
	}
	if _, err := f.controller.ApprovePreview(ctx, id); err != nil {
		t.Fatalf("ApprovePreview failed: %v", err)
	}
	for _, lang := range targetLanguages {
		job, err := f.store.GetRenderJob(ctx, id, lang)
		if err != nil || job == nil {
			t.Fatalf("missing job for %s: %v", lang, err)
		}
		job.Status = edition.JobCompleted
		job.OutputPath = "/renders/" + lang + ".mp4"
		if _, err := f.store.UpsertRenderJob(ctx, job); err != nil {
			t.Fatalf("upsert job: %v", err)
		}
	}
	if _, err := f.store.UpsertTranslation(ctx, &edition.Translation{
		EditionID: id, Lang: "en", Title: "Casta Diva (EN)",
	}); err != nil {
		t.Fatalf("upsert translation: %v", err)
	}
	if _, err := f.controller.SettleBatch(ctx, id, render.Aggregate{Completed: 2, Total: 2}); err != nil {
		t.Fatalf("SettleBatch failed: %v", err)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/v1/editions/%d/export", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d: %s", rec.Code, rec.Body.String())
	}
	var manifest struct {
		Artifacts []struct {
			Lang string `json:"lang"`
		} `json:"artifacts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(manifest.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %+v", manifest)
	}
}

func TestRetryRenderConflictOutsideRenderingStates(t *testing.T) {
	f := newFixture(t)
	id := f.createEdition(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/editions/%d/render", id), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}
