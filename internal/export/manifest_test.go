package export_test

import (
	"errors"
	"testing"
	"time"

	"libretto/internal/edition"
	"libretto/internal/export"
	"libretto/internal/services"
)

var languages = []string{"en", "it"}

func readyEdition() *edition.Edition {
	ed := &edition.Edition{
		ID:          7,
		Artist:      "Callas",
		Title:       "Casta Diva",
		CaptionLang: "it",
		Status:      edition.StatusDone,
	}
	ed.SetWindow(12.3, 187.9)
	return ed
}

func completedJobs() []*edition.RenderJob {
	return []*edition.RenderJob{
		{EditionID: 7, Lang: "en", Status: edition.JobCompleted, OutputPath: "/renders/en.mp4", SizeBytes: 1000},
		{EditionID: 7, Lang: "it", Status: edition.JobCompleted, OutputPath: "/renders/it.mp4", SizeBytes: 1100},
	}
}

func englishTranslation() []*edition.Translation {
	return []*edition.Translation{
		{EditionID: 7, Lang: "en", Title: "Casta Diva (English captions)", Tags: "opera,bellini", CreatedAt: time.Now()},
	}
}

func TestBuildManifest(t *testing.T) {
	manifest, err := export.Build(readyEdition(), completedJobs(), englishTranslation(), languages)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(manifest.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(manifest.Artifacts))
	}
	if manifest.WindowStartSec != 12.3 || manifest.WindowEndSec != 187.9 {
		t.Fatalf("unexpected window %v..%v", manifest.WindowStartSec, manifest.WindowEndSec)
	}
	// Caption language needs no localization entry.
	if len(manifest.Localizations) != 1 || manifest.Localizations[0].Lang != "en" {
		t.Fatalf("unexpected localizations %v", manifest.Localizations)
	}
}

func TestBuildRejectsUnfinishedEdition(t *testing.T) {
	ed := readyEdition()
	ed.Status = edition.StatusRenderingAll
	if _, err := export.Build(ed, completedJobs(), englishTranslation(), languages); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBuildRejectsMissingRender(t *testing.T) {
	jobs := completedJobs()[:1] // "it" missing
	if _, err := export.Build(readyEdition(), jobs, englishTranslation(), languages); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBuildRejectsErroredTranslation(t *testing.T) {
	translations := englishTranslation()
	translations[0].ErrorMessage = "model refused"
	if _, err := export.Build(readyEdition(), completedJobs(), translations, languages); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBuildInstrumentalSkipsTranslations(t *testing.T) {
	ed := readyEdition()
	ed.Instrumental = true
	manifest, err := export.Build(ed, completedJobs(), nil, languages)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(manifest.Localizations) != 0 {
		t.Fatalf("instrumental manifest must not carry localizations, got %v", manifest.Localizations)
	}
}
