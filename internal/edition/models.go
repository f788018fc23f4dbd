package edition

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an edition.
type Status string

const (
	StatusAwaiting          Status = "awaiting"
	StatusDownloading       Status = "downloading"
	StatusLyrics            Status = "lyrics"
	StatusTranscribing      Status = "transcribing"
	StatusAligning          Status = "aligning"
	StatusCutting           Status = "cutting"
	StatusTranslating       Status = "translating"
	StatusPreviewRendering  Status = "preview_rendering"
	StatusPreviewReady      Status = "preview_ready"
	StatusRevisionRequested Status = "revision_requested"
	StatusRenderingAll      Status = "rendering_all"
	StatusDone              Status = "done"
	StatusFailed            Status = "failed"
)

var allStatuses = []Status{
	StatusAwaiting,
	StatusDownloading,
	StatusLyrics,
	StatusTranscribing,
	StatusAligning,
	StatusCutting,
	StatusTranslating,
	StatusPreviewRendering,
	StatusPreviewReady,
	StatusRevisionRequested,
	StatusRenderingAll,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// watchStatuses are the states with an external worker in flight; the
// workflow manager polls editions in these states and nothing else.
var watchStatuses = map[Status]struct{}{
	StatusTranscribing:     {},
	StatusTranslating:      {},
	StatusPreviewRendering: {},
	StatusRenderingAll:     {},
}

// transitions is the closed edge set of the lifecycle. Failed re-enters a
// rendering state only through a manual retry; done is terminal.
var transitions = map[Status][]Status{
	StatusAwaiting:          {StatusDownloading, StatusLyrics},
	StatusDownloading:       {StatusLyrics},
	StatusLyrics:            {StatusTranscribing},
	StatusTranscribing:      {StatusAligning},
	StatusAligning:          {StatusCutting},
	StatusCutting:           {StatusTranslating, StatusPreviewRendering},
	StatusTranslating:       {StatusPreviewRendering},
	StatusPreviewRendering:  {StatusPreviewReady},
	StatusPreviewReady:      {StatusRenderingAll, StatusRevisionRequested},
	StatusRevisionRequested: {StatusAligning},
	StatusRenderingAll:      {StatusDone, StatusFailed},
	StatusFailed:            {StatusPreviewRendering, StatusRenderingAll},
	StatusDone:              {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether from may move to to. Every status may move
// to failed when an unrecoverable external failure is recorded.
func CanTransition(from, to Status) bool {
	if to == StatusFailed && from != StatusDone {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsWatched reports whether a status has an external worker in flight.
func IsWatched(status Status) bool {
	_, ok := watchStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the pipeline. Failed is terminal
// for polling purposes even though a manual retry can leave it.
func IsTerminal(status Status) bool {
	return status == StatusDone || status == StatusFailed
}

// SegmentsEditable reports whether human segment edits are accepted in this
// status. Segments freeze once the edition leaves the alignment stage and
// reopen through a revision request.
func SegmentsEditable(status Status) bool {
	return status == StatusAligning || status == StatusRevisionRequested
}

// Edition is one work item: a single source video being turned into one
// localized clip per target language.
type Edition struct {
	ID           int64
	Artist       string
	Title        string
	Composer     string
	Work         string
	Category     string
	SourceURL    string
	CaptionLang  string
	Instrumental bool

	Status              Status
	SourceDurationSec   float64
	WindowStartSec      *float64
	WindowEndSec        *float64
	WindowDurationSec   *float64
	AlignmentRoute      string
	AlignmentConfidence float64
	RevisionNotes       string
	ErrorMessage        string
	// FailedFrom records the status the edition held when it failed.
	// Empty unless the edition is (or recently was) failed; manual retry
	// paths consult it to pick the legal re-entry point.
	FailedFrom Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasWindow reports whether a cut window has been derived.
func (e *Edition) HasWindow() bool {
	return e.WindowStartSec != nil && e.WindowEndSec != nil
}

// SetWindow replaces the cut window atomically on the struct.
func (e *Edition) SetWindow(startSec, endSec float64) {
	duration := endSec - startSec
	e.WindowStartSec = &startSec
	e.WindowEndSec = &endSec
	e.WindowDurationSec = &duration
}

// SetFailed records a failure message and moves the edition to failed,
// remembering which status it fell from.
func (e *Edition) SetFailed(message string) {
	if e.Status != StatusFailed {
		e.FailedFrom = e.Status
	}
	e.Status = StatusFailed
	e.ErrorMessage = message
}

// ClearFailure wipes the failure record when the edition re-enters the
// pipeline.
func (e *Edition) ClearFailure() {
	e.ErrorMessage = ""
	e.FailedFrom = ""
}

// JobStatus is the terminal-state tracking of one render job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	switch JobStatus(strings.ToLower(strings.TrimSpace(value))) {
	case JobPending:
		return JobPending, true
	case JobCompleted:
		return JobCompleted, true
	case JobError:
		return JobError, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the job finished, successfully or not.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobError
}

// RenderJob is one per-language render task. At most one row exists per
// (edition, language) pair; re-dispatch replaces the prior terminal state.
type RenderJob struct {
	ID           int64
	EditionID    int64
	Lang         string
	Status       JobStatus
	OutputPath   string
	SizeBytes    int64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Translation is the per-language caption/overlay/title/tag content. Its
// lifecycle is independent of render jobs; only export requires both.
type Translation struct {
	ID           int64
	EditionID    int64
	Lang         string
	Title        string
	CaptionsJSON string
	OverlayJSON  string
	Tags         string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
