package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"libretto/internal/cutwindow"
	"libretto/internal/edition"
	"libretto/internal/language"
	"libretto/internal/logging"
	"libretto/internal/notifications"
	"libretto/internal/render"
	"libretto/internal/segment"
	"libretto/internal/services"
)

const component = "lifecycle"

// Transcriber is the slice of the transcription client the controller needs
// to kick off a job. Completion is observed by the workflow poll loop, not
// here.
type Transcriber interface {
	Start(ctx context.Context, ed *edition.Edition) error
}

// Controller owns every status transition of an edition. All mutations load
// the authoritative row, check the transition table, and persist atomically;
// a caller holding a stale view gets ErrConflict and no state change.
type Controller struct {
	store       *edition.Store
	render      *render.Coordinator
	transcriber Transcriber
	notifier    notifications.Service
	logger      *slog.Logger
	languages   []string
}

// NewController wires the controller over its collaborators. languages is
// the target set for the full fan-out.
func NewController(
	store *edition.Store,
	coordinator *render.Coordinator,
	transcriber Transcriber,
	notifier notifications.Service,
	logger *slog.Logger,
	languages []string,
) *Controller {
	return &Controller{
		store:       store,
		render:      coordinator,
		transcriber: transcriber,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, component),
		languages:   languages,
	}
}

// Register creates a new edition in the awaiting state.
func (c *Controller) Register(ctx context.Context, params edition.NewParams) (*edition.Edition, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, component, "register", "title is required", nil)
	}
	if strings.TrimSpace(params.SourceURL) == "" {
		return nil, services.Wrap(services.ErrValidation, component, "register", "source url is required", nil)
	}
	lang, ok := language.Normalize(params.CaptionLang)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, component, "register",
			fmt.Sprintf("unknown caption language %q", params.CaptionLang), nil)
	}
	params.CaptionLang = lang

	ed, err := c.store.New(ctx, params)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "register", "persist edition", err)
	}
	c.logger.Info("edition registered",
		logging.Int64(logging.FieldEditionID, ed.ID),
		logging.String("title", ed.Title))
	return ed, nil
}

// BeginDownload moves an awaiting edition into the downloading state.
func (c *Controller) BeginDownload(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusDownloading, "begin download"); err != nil {
		return nil, err
	}
	ed.Status = edition.StatusDownloading
	return ed, c.persist(ctx, ed, "begin download")
}

// SourceReady records the source duration and moves the edition to the
// lyrics checkpoint. Instrumental editions have no lyrics to approve and
// jump straight to transcription.
func (c *Controller) SourceReady(ctx context.Context, id int64, durationSec float64) (*edition.Edition, error) {
	if durationSec <= 0 {
		return nil, services.Wrap(services.ErrValidation, component, "source ready", "duration must be positive", nil)
	}
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusLyrics, "source ready"); err != nil {
		return nil, err
	}

	ed.SourceDurationSec = durationSec
	ed.Status = edition.StatusLyrics
	if ed.Instrumental {
		return c.startTranscription(ctx, ed, "source ready")
	}
	return ed, c.persist(ctx, ed, "source ready")
}

// ApproveLyrics confirms the candidate lyric text and kicks off
// transcription.
func (c *Controller) ApproveLyrics(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusTranscribing, "approve lyrics"); err != nil {
		return nil, err
	}
	return c.startTranscription(ctx, ed, "approve lyrics")
}

func (c *Controller) startTranscription(ctx context.Context, ed *edition.Edition, op string) (*edition.Edition, error) {
	if err := c.transcriber.Start(ctx, ed); err != nil {
		if services.IsRetryable(err) {
			return nil, err
		}
		if failErr := c.fail(ctx, ed, "transcription", err); failErr != nil {
			return nil, failErr
		}
		return nil, err
	}
	ed.Status = edition.StatusTranscribing
	return ed, c.persist(ctx, ed, op)
}

// ImportTranscription stores a finished transcription and opens the
// alignment stage. A result arriving after the edition already moved past
// transcribing is discarded with ErrConflict.
func (c *Controller) ImportTranscription(ctx context.Context, id int64, route string, segments []segment.Segment) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ed.Status != edition.StatusTranscribing {
		return nil, services.Wrap(services.ErrConflict, component, "import transcription",
			fmt.Sprintf("edition is %s, result discarded", ed.Status), nil)
	}
	if len(segments) == 0 {
		return nil, c.failWith(ctx, ed, "transcription", fmt.Errorf("worker returned no segments"))
	}

	ordered := segment.Clone(segments)
	segment.SortByStart(ordered)
	if err := segment.Validate(ordered); err != nil {
		return nil, c.failWith(ctx, ed, "transcription", err)
	}

	if err := c.store.ReplaceSegments(ctx, ed.ID, ordered); err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "import transcription", "persist segments", err)
	}
	ed.AlignmentRoute = route
	ed.AlignmentConfidence = segment.MeanConfidence(ordered)
	ed.Status = edition.StatusAligning
	return ed, c.persist(ctx, ed, "import transcription")
}

// SubmitSegments accepts the human-validated segment list, derives the cut
// window from it, and advances to translation (or parks instrumental
// editions in cutting, where a preview may be requested directly).
// Submitting from revision_requested re-enters aligning first; revision
// notes are retained for display.
func (c *Controller) SubmitSegments(ctx context.Context, id int64, segments []segment.Segment) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !edition.SegmentsEditable(ed.Status) {
		return nil, services.Wrap(services.ErrConflict, component, "submit segments",
			fmt.Sprintf("segments are frozen while %s", ed.Status), nil)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, component, "submit segments", "empty segment list", nil)
	}

	ordered := segment.Clone(segments)
	segment.SortByStart(ordered)
	if err := segment.Validate(ordered); err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "submit segments", "segment list invalid", err)
	}
	window, err := cutwindow.Derive(ordered, ed.SourceDurationSec)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "submit segments", "derive window", err)
	}

	if err := c.store.ReplaceSegments(ctx, ed.ID, ordered); err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "submit segments", "persist segments", err)
	}
	ed.SetWindow(window.StartSec, window.EndSec)
	if ed.Instrumental {
		ed.Status = edition.StatusCutting
	} else {
		ed.Status = edition.StatusTranslating
	}
	return ed, c.persist(ctx, ed, "submit segments")
}

// CutOverride is an explicit window request; nil means re-derive from the
// stored segments.
type CutOverride struct {
	StartSec float64
	EndSec   float64
}

// ApplyCut replaces the cut window atomically: either the new window is
// validated and persisted whole, or the prior window stays untouched.
func (c *Controller) ApplyCut(ctx context.Context, id int64, override *CutOverride) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch ed.Status {
	case edition.StatusCutting, edition.StatusTranslating, edition.StatusPreviewReady:
	default:
		return nil, services.Wrap(services.ErrConflict, component, "apply cut",
			fmt.Sprintf("cut not adjustable while %s", ed.Status), nil)
	}

	var window cutwindow.Window
	if override != nil {
		window, err = cutwindow.Override(override.StartSec, override.EndSec, ed.SourceDurationSec)
	} else {
		var segments []segment.Segment
		segments, err = c.store.ListSegments(ctx, ed.ID)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, component, "apply cut", "load segments", err)
		}
		window, err = cutwindow.Derive(segments, ed.SourceDurationSec)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "apply cut", "window rejected", err)
	}

	ed.SetWindow(window.StartSec, window.EndSec)
	return ed, c.persist(ctx, ed, "apply cut")
}

// RequestPreview dispatches the single preview render and moves to
// preview_rendering. A failed edition may re-request its preview; the
// dispatch is idempotent.
func (c *Controller) RequestPreview(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusPreviewRendering, "request preview"); err != nil {
		return nil, err
	}
	if err := c.render.DispatchPreview(ctx, ed); err != nil {
		if services.IsRetryable(err) {
			return nil, err
		}
		return nil, c.failWith(ctx, ed, "preview render", err)
	}
	ed.Status = edition.StatusPreviewRendering
	ed.ClearFailure()
	return ed, c.persist(ctx, ed, "request preview")
}

// PreviewCompleted records a finished preview render and parks the edition
// at the human gate.
func (c *Controller) PreviewCompleted(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusPreviewReady, "preview completed"); err != nil {
		return nil, err
	}
	ed.Status = edition.StatusPreviewReady
	if err := c.persist(ctx, ed, "preview completed"); err != nil {
		return nil, err
	}
	if err := c.notifier.NotifyPreviewReady(ctx, ed.Artist, ed.Title); err != nil {
		c.logger.Warn("preview notification failed", logging.Error(err))
	}
	return ed, nil
}

// ApprovePreview is the preview gate: the only path into the full
// fan-out. It dispatches one job per target language.
func (c *Controller) ApprovePreview(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ed.Status != edition.StatusPreviewReady {
		return nil, services.Wrap(services.ErrConflict, component, "approve preview",
			fmt.Sprintf("no rendered preview to approve while %s", ed.Status), nil)
	}
	ed.Status = edition.StatusRenderingAll
	ed.ClearFailure()
	if err := c.persist(ctx, ed, "approve preview"); err != nil {
		return nil, err
	}
	if err := c.render.DispatchAll(ctx, ed, c.languages); err != nil {
		return nil, err
	}
	return ed, nil
}

// RequestRevision rejects the preview with notes and reopens alignment
// editing. Render jobs from the rejected preview are discarded.
func (c *Controller) RequestRevision(ctx context.Context, id int64, notes string) (*edition.Edition, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, services.Wrap(services.ErrValidation, component, "request revision", "notes are required", nil)
	}
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.guard(ed, edition.StatusRevisionRequested, "request revision"); err != nil {
		return nil, err
	}
	if _, err := c.store.ClearRenderJobs(ctx, ed.ID); err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "request revision", "discard render jobs", err)
	}
	ed.Status = edition.StatusRevisionRequested
	ed.RevisionNotes = strings.TrimSpace(notes)
	return ed, c.persist(ctx, ed, "request revision")
}

// SettleBatch folds a terminal fan-out aggregate into edition status: done
// on full success, failed when any language errored. Completed artifacts
// stay downloadable either way. A non-terminal aggregate is a no-op.
func (c *Controller) SettleBatch(ctx context.Context, id int64, agg render.Aggregate) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ed.Status != edition.StatusRenderingAll {
		return nil, services.Wrap(services.ErrConflict, component, "settle batch",
			fmt.Sprintf("edition is %s", ed.Status), nil)
	}
	if !agg.AllTerminal() {
		return ed, nil
	}

	if agg.Ready() {
		ed.Status = edition.StatusDone
		ed.ClearFailure()
		if err := c.persist(ctx, ed, "settle batch"); err != nil {
			return nil, err
		}
		if err := c.notifier.NotifyBatchCompleted(ctx, ed.Artist, ed.Title, agg.Total); err != nil {
			c.logger.Warn("batch notification failed", logging.Error(err))
		}
		return ed, nil
	}

	ed.SetFailed(fmt.Sprintf("%d of %d renders failed", agg.Errored, agg.Total))
	if err := c.persist(ctx, ed, "settle batch"); err != nil {
		return nil, err
	}
	if err := c.notifier.NotifyBatchFailed(ctx, ed.Artist, ed.Title, agg.Completed, agg.Errored); err != nil {
		c.logger.Warn("batch notification failed", logging.Error(err))
	}
	return ed, nil
}

// RetryRender re-enters rendering_all and re-dispatches jobs. With a
// language it re-renders that single language; without one it re-dispatches
// every errored language, or the full set when no jobs exist yet.
func (c *Controller) RetryRender(ctx context.Context, id int64, lang string) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// A failed edition may only re-enter the fan-out if that is where it
	// fell from; a preview failure goes back through the preview gate.
	switch {
	case ed.Status == edition.StatusRenderingAll:
	case ed.Status == edition.StatusFailed && ed.FailedFrom == edition.StatusRenderingAll:
	case ed.Status == edition.StatusFailed:
		return nil, services.Wrap(services.ErrConflict, component, "retry render",
			fmt.Sprintf("failed during %s; request a new preview instead", ed.FailedFrom), nil)
	default:
		return nil, services.Wrap(services.ErrConflict, component, "retry render",
			fmt.Sprintf("nothing to retry while %s", ed.Status), nil)
	}

	if lang != "" {
		normalized, ok := language.Normalize(lang)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, component, "retry render",
				fmt.Sprintf("unknown language %q", lang), nil)
		}
		if err := c.render.RetryLanguage(ctx, ed, normalized); err != nil {
			return nil, err
		}
	} else {
		targets, err := c.erroredLanguages(ctx, ed.ID)
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			targets = c.languages
		}
		if err := c.render.DispatchAll(ctx, ed, targets); err != nil {
			return nil, err
		}
	}

	ed.Status = edition.StatusRenderingAll
	ed.ClearFailure()
	return ed, c.persist(ctx, ed, "retry render")
}

func (c *Controller) erroredLanguages(ctx context.Context, editionID int64) ([]string, error) {
	jobs, err := c.store.ListRenderJobs(ctx, editionID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "retry render", "list jobs", err)
	}
	var targets []string
	for _, job := range jobs {
		if job.Status == edition.JobError {
			targets = append(targets, job.Lang)
		}
	}
	return targets, nil
}

// Fail records an unrecoverable stage failure. Done editions are immutable.
func (c *Controller) Fail(ctx context.Context, id int64, stage string, cause error) (*edition.Edition, error) {
	ed, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.fail(ctx, ed, stage, cause); err != nil {
		return nil, err
	}
	return ed, nil
}

// failWith records the failure and hands the cause back to the caller as a
// non-retryable error.
func (c *Controller) failWith(ctx context.Context, ed *edition.Edition, stage string, cause error) error {
	if err := c.fail(ctx, ed, stage, cause); err != nil {
		return err
	}
	return services.Wrap(services.ErrExternalTool, component, stage, cause.Error(), nil)
}

func (c *Controller) fail(ctx context.Context, ed *edition.Edition, stage string, cause error) error {
	if !edition.CanTransition(ed.Status, edition.StatusFailed) {
		return services.Wrap(services.ErrConflict, component, "fail",
			fmt.Sprintf("edition is %s", ed.Status), nil)
	}
	message := "unknown failure"
	if cause != nil {
		message = cause.Error()
	}
	ed.SetFailed(fmt.Sprintf("%s: %s", stage, message))
	if err := c.persist(ctx, ed, "fail"); err != nil {
		return err
	}
	c.logger.Error("stage failed",
		logging.Int64(logging.FieldEditionID, ed.ID),
		logging.String(logging.FieldStage, stage),
		logging.Error(cause))
	if err := c.notifier.NotifyStageFailure(ctx, stage, ed.Title, cause); err != nil {
		c.logger.Warn("failure notification failed", logging.Error(err))
	}
	return nil
}

func (c *Controller) load(ctx context.Context, id int64) (*edition.Edition, error) {
	ed, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "load", "read edition", err)
	}
	if ed == nil {
		return nil, services.Wrap(services.ErrNotFound, component, "load",
			fmt.Sprintf("edition %d", id), nil)
	}
	return ed, nil
}

func (c *Controller) guard(ed *edition.Edition, to edition.Status, op string) error {
	if !edition.CanTransition(ed.Status, to) {
		return services.Wrap(services.ErrConflict, component, op,
			fmt.Sprintf("cannot move %s edition to %s", ed.Status, to), nil)
	}
	return nil
}

func (c *Controller) persist(ctx context.Context, ed *edition.Edition, op string) error {
	if err := c.store.Update(ctx, ed); err != nil {
		return services.Wrap(services.ErrTransient, component, op, "persist edition", err)
	}
	c.logger.Info(op,
		logging.Int64(logging.FieldEditionID, ed.ID),
		logging.String(logging.FieldStatus, string(ed.Status)))
	return nil
}
