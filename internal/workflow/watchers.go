package workflow

import (
	"context"
	"errors"
	"log/slog"

	"libretto/internal/edition"
	"libretto/internal/language"
	"libretto/internal/lifecycle"
	"libretto/internal/logging"
	"libretto/internal/render"
	"libretto/internal/segment"
	"libretto/internal/services"
	"libretto/internal/services/renderfarm"
	"libretto/internal/services/transcriber"
	"libretto/internal/services/translator"
)

// TranscriptionFetcher is the slice of the transcription client the watcher
// polls.
type TranscriptionFetcher interface {
	Fetch(ctx context.Context, editionID int64) (*transcriber.Result, error)
}

// TranslationService produces translated content for one target language.
type TranslationService interface {
	Translate(ctx context.Context, ed *edition.Edition, lang string, captions []segment.Segment) (*translator.Content, error)
}

// JobPoller is the slice of the render client the watchers poll.
type JobPoller interface {
	JobStatus(ctx context.Context, editionID int64, lang string) (*renderfarm.JobState, error)
}

// NewTranscriptionWatcher polls the transcription worker for editions in
// transcribing and imports finished segment lists.
func NewTranscriptionWatcher(controller *lifecycle.Controller, fetcher TranscriptionFetcher, logger *slog.Logger) Watcher {
	return &transcriptionWatcher{
		controller: controller,
		fetcher:    fetcher,
		logger:     logging.NewComponentLogger(logger, "transcription-watcher"),
	}
}

type transcriptionWatcher struct {
	controller *lifecycle.Controller
	fetcher    TranscriptionFetcher
	logger     *slog.Logger
}

func (w *transcriptionWatcher) Status() edition.Status { return edition.StatusTranscribing }

func (w *transcriptionWatcher) Observe(ctx context.Context, ed *edition.Edition) error {
	result, err := w.fetcher.Fetch(ctx, ed.ID)
	if err != nil {
		if services.IsRetryable(err) {
			return err
		}
		if _, failErr := w.controller.Fail(ctx, ed.ID, "transcription", err); failErr != nil {
			return failErr
		}
		return nil
	}
	_, err = w.controller.ImportTranscription(ctx, ed.ID, result.Route, result.Segments)
	return err
}

// NewTranslationWatcher fills in missing per-language translations for
// editions parked in translating. Translation is best-effort: each failed
// language records its error on its own row and the edition stays put,
// waiting for the preview request.
func NewTranslationWatcher(store *edition.Store, service TranslationService, languages []string, logger *slog.Logger) Watcher {
	return &translationWatcher{
		store:     store,
		service:   service,
		languages: languages,
		logger:    logging.NewComponentLogger(logger, "translation-watcher"),
	}
}

type translationWatcher struct {
	store     *edition.Store
	service   TranslationService
	languages []string
	logger    *slog.Logger
}

func (w *translationWatcher) Status() edition.Status { return edition.StatusTranslating }

func (w *translationWatcher) Observe(ctx context.Context, ed *edition.Edition) error {
	existing, err := w.store.ListTranslations(ctx, ed.ID)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, tr := range existing {
		have[tr.Lang] = struct{}{}
	}

	var captions []segment.Segment
	for _, lang := range w.languages {
		if lang == ed.CaptionLang {
			continue
		}
		if _, ok := have[lang]; ok {
			continue
		}
		if captions == nil {
			captions, err = w.windowedCaptions(ctx, ed)
			if err != nil {
				return err
			}
		}

		content, translateErr := w.service.Translate(ctx, ed, lang, captions)
		if translateErr != nil {
			if services.IsRetryable(translateErr) {
				// Worker unavailable; leave the language missing and let the
				// next tick retry it.
				w.logger.Debug("translation deferred",
					logging.Int64(logging.FieldEditionID, ed.ID),
					logging.String(logging.FieldLanguage, lang),
					logging.Error(translateErr))
				continue
			}
			if _, err := w.store.UpsertTranslation(ctx, &edition.Translation{
				EditionID:    ed.ID,
				Lang:         lang,
				ErrorMessage: translateErr.Error(),
			}); err != nil {
				return err
			}
			w.logger.Warn("language translation failed",
				logging.Int64(logging.FieldEditionID, ed.ID),
				logging.String(logging.FieldLanguage, lang),
				logging.Error(translateErr))
			continue
		}

		if _, err := w.store.UpsertTranslation(ctx, &edition.Translation{
			EditionID:    ed.ID,
			Lang:         lang,
			Title:        content.Title,
			CaptionsJSON: content.CaptionsJSON,
			OverlayJSON:  content.OverlayJSON,
			Tags:         content.Tags,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *translationWatcher) windowedCaptions(ctx context.Context, ed *edition.Edition) ([]segment.Segment, error) {
	segments, err := w.store.ListSegments(ctx, ed.ID)
	if err != nil {
		return nil, err
	}
	if ed.HasWindow() {
		segments = segment.ClipToWindow(segments, *ed.WindowStartSec, *ed.WindowEndSec)
	}
	return segments, nil
}

// NewPreviewWatcher polls the render worker for the single preview job and
// moves the edition to the preview gate, or to failed when the preview
// render errors.
func NewPreviewWatcher(store *edition.Store, controller *lifecycle.Controller, poller JobPoller, logger *slog.Logger) Watcher {
	return &previewWatcher{
		store:      store,
		controller: controller,
		poller:     poller,
		logger:     logging.NewComponentLogger(logger, "preview-watcher"),
	}
}

type previewWatcher struct {
	store      *edition.Store
	controller *lifecycle.Controller
	poller     JobPoller
	logger     *slog.Logger
}

func (w *previewWatcher) Status() edition.Status { return edition.StatusPreviewRendering }

func (w *previewWatcher) Observe(ctx context.Context, ed *edition.Edition) error {
	job, err := w.store.GetRenderJob(ctx, ed.ID, ed.CaptionLang)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrConflict, "preview-watcher", "observe", "preview job missing", nil)
	}
	if job.Status.IsTerminal() {
		return w.settle(ctx, ed, job)
	}

	state, err := w.poller.JobStatus(ctx, ed.ID, ed.CaptionLang)
	if err != nil {
		return err
	}
	if updated, changed := applyJobState(job, state); changed {
		if _, err := w.store.UpsertRenderJob(ctx, updated); err != nil {
			return err
		}
		job = updated
	}
	if !job.Status.IsTerminal() {
		return nil
	}
	return w.settle(ctx, ed, job)
}

func (w *previewWatcher) settle(ctx context.Context, ed *edition.Edition, job *edition.RenderJob) error {
	if job.Status == edition.JobCompleted {
		_, err := w.controller.PreviewCompleted(ctx, ed.ID)
		return err
	}
	message := job.ErrorMessage
	if message == "" {
		message = "preview render failed"
	}
	_, err := w.controller.Fail(ctx, ed.ID, "preview render", errors.New(message))
	return err
}

// NewBatchWatcher polls the render worker for the full fan-out, records
// per-language terminal states independently, and settles the batch once
// every job is terminal.
func NewBatchWatcher(store *edition.Store, controller *lifecycle.Controller, poller JobPoller, logger *slog.Logger) Watcher {
	return &batchWatcher{
		store:      store,
		controller: controller,
		poller:     poller,
		logger:     logging.NewComponentLogger(logger, "batch-watcher"),
	}
}

type batchWatcher struct {
	store      *edition.Store
	controller *lifecycle.Controller
	poller     JobPoller
	logger     *slog.Logger
}

func (w *batchWatcher) Status() edition.Status { return edition.StatusRenderingAll }

func (w *batchWatcher) Observe(ctx context.Context, ed *edition.Edition) error {
	jobs, err := w.store.ListRenderJobs(ctx, ed.ID)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return services.Wrap(services.ErrConflict, "batch-watcher", "observe", "no render jobs", nil)
	}

	agg := renderAggregate{}
	for _, job := range jobs {
		if !job.Status.IsTerminal() {
			state, err := w.poller.JobStatus(ctx, ed.ID, job.Lang)
			if err != nil {
				if services.IsRetryable(err) {
					agg.pending++
					continue
				}
				return err
			}
			if updated, changed := applyJobState(job, state); changed {
				if _, err := w.store.UpsertRenderJob(ctx, updated); err != nil {
					return err
				}
				job = updated
			}
		}
		switch job.Status {
		case edition.JobCompleted:
			agg.completed++
		case edition.JobError:
			agg.errored++
		default:
			agg.pending++
		}
	}

	if agg.pending > 0 {
		return nil
	}
	_, err = w.controller.SettleBatch(ctx, ed.ID, agg.toAggregate(len(jobs)))
	return err
}

type renderAggregate struct {
	completed int
	pending   int
	errored   int
}

func (a renderAggregate) toAggregate(total int) render.Aggregate {
	return render.Aggregate{
		Completed: a.completed,
		Pending:   a.pending,
		Errored:   a.errored,
		Total:     total,
	}
}

// applyJobState folds the worker's view into the stored job. Only terminal
// worker states change anything.
func applyJobState(job *edition.RenderJob, state *renderfarm.JobState) (*edition.RenderJob, bool) {
	if state == nil {
		return job, false
	}
	switch state.State {
	case renderfarm.StateCompleted:
		updated := *job
		updated.Status = edition.JobCompleted
		updated.OutputPath = state.OutputPath
		updated.SizeBytes = state.SizeBytes
		updated.ErrorMessage = ""
		return &updated, true
	case renderfarm.StateError:
		updated := *job
		updated.Status = edition.JobError
		updated.ErrorMessage = state.Message
		if updated.ErrorMessage == "" {
			updated.ErrorMessage = "render failed"
		}
		return &updated, true
	default:
		return job, false
	}
}

// TargetLanguages normalizes the configured language list for the
// translation watcher, dropping codes x/text cannot resolve.
func TargetLanguages(configured []string, logger *slog.Logger) []string {
	var out []string
	for _, code := range configured {
		normalized, ok := language.Normalize(code)
		if !ok {
			if logger != nil {
				logger.Warn("ignoring unknown language", logging.String(logging.FieldLanguage, code))
			}
			continue
		}
		if !language.Contains(out, normalized) {
			out = append(out, normalized)
		}
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	return out
}
