// Package export assembles the delivery manifest for a finished edition.
// A manifest is only produced once the edition is done, every target
// language has a completed render artifact, and every translated language
// has usable content; until then callers get a conflict describing what is
// still missing.
package export

import (
	"fmt"
	"time"

	"libretto/internal/edition"
	"libretto/internal/language"
	"libretto/internal/services"
)

const component = "export"

// Artifact is one rendered clip ready for delivery.
type Artifact struct {
	Lang       string `json:"lang"`
	OutputPath string `json:"output_path"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Localization carries the per-language publishing metadata that accompanies
// an artifact.
type Localization struct {
	Lang  string `json:"lang"`
	Title string `json:"title"`
	Tags  string `json:"tags,omitempty"`
}

// Manifest is the complete delivery bundle description for one edition.
type Manifest struct {
	EditionID      int64          `json:"edition_id"`
	Artist         string         `json:"artist"`
	Title          string         `json:"title"`
	Composer       string         `json:"composer,omitempty"`
	Work           string         `json:"work,omitempty"`
	CaptionLang    string         `json:"caption_lang"`
	Instrumental   bool           `json:"instrumental"`
	WindowStartSec float64        `json:"window_start_sec"`
	WindowEndSec   float64        `json:"window_end_sec"`
	Artifacts      []Artifact     `json:"artifacts"`
	Localizations  []Localization `json:"localizations"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Build validates readiness and assembles the manifest. languages is the
// configured target set; every entry must have a completed render, and every
// entry other than the caption language must have translated content unless
// the edition is instrumental.
func Build(ed *edition.Edition, jobs []*edition.RenderJob, translations []*edition.Translation, languages []string) (*Manifest, error) {
	if ed == nil {
		return nil, services.Wrap(services.ErrNotFound, component, "build", "edition missing", nil)
	}
	if ed.Status != edition.StatusDone {
		return nil, services.Wrap(services.ErrConflict, component, "build",
			fmt.Sprintf("edition is %s, not done", ed.Status), nil)
	}
	if !ed.HasWindow() {
		return nil, services.Wrap(services.ErrConflict, component, "build", "edition has no cut window", nil)
	}

	completed := make(map[string]*edition.RenderJob, len(jobs))
	for _, job := range jobs {
		if job.Status == edition.JobCompleted {
			completed[job.Lang] = job
		}
	}
	translated := make(map[string]*edition.Translation, len(translations))
	for _, tr := range translations {
		if tr.ErrorMessage == "" {
			translated[tr.Lang] = tr
		}
	}

	manifest := &Manifest{
		EditionID:      ed.ID,
		Artist:         ed.Artist,
		Title:          ed.Title,
		Composer:       ed.Composer,
		Work:           ed.Work,
		CaptionLang:    ed.CaptionLang,
		Instrumental:   ed.Instrumental,
		WindowStartSec: *ed.WindowStartSec,
		WindowEndSec:   *ed.WindowEndSec,
		GeneratedAt:    time.Now().UTC(),
	}

	for _, code := range languages {
		lang, ok := language.Normalize(code)
		if !ok {
			continue
		}
		job, ok := completed[lang]
		if !ok {
			return nil, services.Wrap(services.ErrConflict, component, "build",
				fmt.Sprintf("no completed render for %s", lang), nil)
		}
		manifest.Artifacts = append(manifest.Artifacts, Artifact{
			Lang:       lang,
			OutputPath: job.OutputPath,
			SizeBytes:  job.SizeBytes,
		})

		if ed.Instrumental || lang == ed.CaptionLang {
			continue
		}
		tr, ok := translated[lang]
		if !ok {
			return nil, services.Wrap(services.ErrConflict, component, "build",
				fmt.Sprintf("no translation for %s", lang), nil)
		}
		manifest.Localizations = append(manifest.Localizations, Localization{
			Lang:  lang,
			Title: tr.Title,
			Tags:  tr.Tags,
		})
	}
	if len(manifest.Artifacts) == 0 {
		return nil, services.Wrap(services.ErrConflict, component, "build", "no target languages configured", nil)
	}
	return manifest, nil
}
