package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"libretto/internal/edition"
	"libretto/internal/logging"
	"libretto/internal/segment"
	"libretto/internal/services"
	"libretto/internal/services/renderfarm"
)

const component = "render"

// Farm is the slice of the render worker client the coordinator needs.
type Farm interface {
	Start(ctx context.Context, req renderfarm.StartRequest) error
}

// Coordinator owns render fan-out: one job per (edition, language), dispatched
// independently and aggregated for readiness. It never advances edition
// status; the lifecycle controller reads Aggregate and decides.
type Coordinator struct {
	store  *edition.Store
	farm   Farm
	logger *slog.Logger
}

// NewCoordinator builds a coordinator over the store and render worker.
func NewCoordinator(store *edition.Store, farm Farm, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		farm:   farm,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// DispatchPreview creates or refreshes the single preview job, for the
// edition's own caption language. It is the only render allowed before the
// preview gate.
func (c *Coordinator) DispatchPreview(ctx context.Context, ed *edition.Edition) error {
	if !ed.HasWindow() {
		return services.Wrap(services.ErrConflict, component, "dispatch preview", "edition has no cut window", nil)
	}
	return c.dispatchOne(ctx, ed, ed.CaptionLang)
}

// DispatchAll creates or refreshes one job per requested language. Languages
// are independent: a dispatch failure is recorded on that language's job and
// does not stop the rest of the set.
func (c *Coordinator) DispatchAll(ctx context.Context, ed *edition.Edition, languages []string) error {
	if !ed.HasWindow() {
		return services.Wrap(services.ErrConflict, component, "dispatch all", "edition has no cut window", nil)
	}
	if len(languages) == 0 {
		return services.Wrap(services.ErrValidation, component, "dispatch all", "empty language list", nil)
	}
	for _, lang := range languages {
		if err := c.dispatchOne(ctx, ed, lang); err != nil {
			c.logger.Warn("language dispatch failed",
				logging.Int64(logging.FieldEditionID, ed.ID),
				logging.String(logging.FieldLanguage, lang),
				logging.Error(err))
		}
	}
	return nil
}

// RetryLanguage re-dispatches a single language, replacing that job's
// terminal state without touching any other job.
func (c *Coordinator) RetryLanguage(ctx context.Context, ed *edition.Edition, lang string) error {
	if !ed.HasWindow() {
		return services.Wrap(services.ErrConflict, component, "retry language", "edition has no cut window", nil)
	}
	return c.dispatchOne(ctx, ed, lang)
}

func (c *Coordinator) dispatchOne(ctx context.Context, ed *edition.Edition, lang string) error {
	if lang == "" {
		return services.Wrap(services.ErrValidation, component, "dispatch", "empty language", nil)
	}

	job := &edition.RenderJob{
		EditionID: ed.ID,
		Lang:      lang,
		Status:    edition.JobPending,
	}
	if _, err := c.store.UpsertRenderJob(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, component, "dispatch", "persist job", err)
	}

	captions, err := c.captionsFor(ctx, ed, lang)
	if err != nil {
		return c.recordDispatchFailure(ctx, job, err)
	}

	req := renderfarm.StartRequest{
		EditionID:      ed.ID,
		Lang:           lang,
		SourceURL:      ed.SourceURL,
		WindowStartSec: *ed.WindowStartSec,
		WindowEndSec:   *ed.WindowEndSec,
		CaptionsJSON:   captions,
		Title:          ed.Title,
	}
	if err := c.farm.Start(ctx, req); err != nil {
		return c.recordDispatchFailure(ctx, job, err)
	}
	return nil
}

func (c *Coordinator) recordDispatchFailure(ctx context.Context, job *edition.RenderJob, cause error) error {
	job.Status = edition.JobError
	job.ErrorMessage = cause.Error()
	if _, err := c.store.UpsertRenderJob(ctx, job); err != nil {
		return fmt.Errorf("record dispatch failure: %w", err)
	}
	return cause
}

// captionsFor returns the window-relative caption payload for one language:
// the stored translation when one exists, otherwise the edition's own
// segments clipped and rebased into the cut window.
func (c *Coordinator) captionsFor(ctx context.Context, ed *edition.Edition, lang string) (string, error) {
	if ed.Instrumental {
		return "", nil
	}
	if lang != ed.CaptionLang {
		tr, err := c.store.GetTranslation(ctx, ed.ID, lang)
		if err != nil {
			return "", err
		}
		if tr != nil && tr.CaptionsJSON != "" {
			return tr.CaptionsJSON, nil
		}
	}

	segments, err := c.store.ListSegments(ctx, ed.ID)
	if err != nil {
		return "", err
	}
	clipped := segment.ClipToWindow(segments, *ed.WindowStartSec, *ed.WindowEndSec)
	payload, err := json.Marshal(clipped)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Aggregate is the fan-out readiness summary over one edition's jobs.
type Aggregate struct {
	Completed int
	Pending   int
	Errored   int
	Total     int
}

// AllTerminal reports whether every job reached a terminal state.
func (a Aggregate) AllTerminal() bool {
	return a.Total > 0 && a.Pending == 0
}

// Ready reports full success: every job terminal and none errored.
func (a Aggregate) Ready() bool {
	return a.AllTerminal() && a.Errored == 0
}

// AggregateJobs summarizes an edition's render jobs.
func (c *Coordinator) AggregateJobs(ctx context.Context, editionID int64) (Aggregate, error) {
	jobs, err := c.store.ListRenderJobs(ctx, editionID)
	if err != nil {
		return Aggregate{}, err
	}
	return Summarize(jobs), nil
}

// Summarize folds a job list into an Aggregate.
func Summarize(jobs []*edition.RenderJob) Aggregate {
	agg := Aggregate{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case edition.JobCompleted:
			agg.Completed++
		case edition.JobError:
			agg.Errored++
		default:
			agg.Pending++
		}
	}
	return agg
}
