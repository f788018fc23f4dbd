package api

import (
	"time"

	"libretto/internal/edition"
	"libretto/internal/segment"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type CreateEditionRequest struct {
	Artist       string `json:"artist"`
	Title        string `json:"title"`
	Composer     string `json:"composer,omitempty"`
	Work         string `json:"work,omitempty"`
	Category     string `json:"category,omitempty"`
	SourceURL    string `json:"source_url"`
	CaptionLang  string `json:"caption_lang"`
	Instrumental bool   `json:"instrumental,omitempty"`
}

type SourceReadyRequest struct {
	DurationSec float64 `json:"duration_sec"`
}

type SegmentsRequest struct {
	Segments []segment.Segment `json:"segments"`
}

// CutRequest with both fields absent means re-derive from stored segments.
type CutRequest struct {
	StartSec *float64 `json:"start_sec,omitempty"`
	EndSec   *float64 `json:"end_sec,omitempty"`
}

type ReviseRequest struct {
	Notes string `json:"notes"`
}

type WindowResponse struct {
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	DurationSec float64 `json:"duration_sec"`
}

type EditionResponse struct {
	ID                  int64           `json:"id"`
	Artist              string          `json:"artist"`
	Title               string          `json:"title"`
	Composer            string          `json:"composer,omitempty"`
	Work                string          `json:"work,omitempty"`
	Category            string          `json:"category,omitempty"`
	SourceURL           string          `json:"source_url"`
	CaptionLang         string          `json:"caption_lang"`
	Instrumental        bool            `json:"instrumental"`
	Status              string          `json:"status"`
	SourceDurationSec   float64         `json:"source_duration_sec,omitempty"`
	Window              *WindowResponse `json:"window,omitempty"`
	AlignmentRoute      string          `json:"alignment_route,omitempty"`
	AlignmentConfidence float64         `json:"alignment_confidence,omitempty"`
	RevisionNotes       string          `json:"revision_notes,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

type EditionDetailResponse struct {
	EditionResponse
	Segments   []segment.Segment   `json:"segments"`
	RenderJobs []RenderJobResponse `json:"render_jobs"`
}

type EditionsResponse struct {
	Editions []EditionResponse `json:"editions"`
}

type RenderJobResponse struct {
	Lang         string `json:"lang"`
	Status       string `json:"status"`
	OutputPath   string `json:"output_path,omitempty"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

type RenderJobsResponse struct {
	Jobs []RenderJobResponse `json:"jobs"`
}

type TranslationResponse struct {
	Lang         string `json:"lang"`
	Title        string `json:"title,omitempty"`
	CaptionsJSON string `json:"captions_json,omitempty"`
	OverlayJSON  string `json:"overlay_json,omitempty"`
	Tags         string `json:"tags,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

type TranslationsResponse struct {
	Translations []TranslationResponse `json:"translations"`
}

func EditionToResponse(ed *edition.Edition) EditionResponse {
	resp := EditionResponse{
		ID:                  ed.ID,
		Artist:              ed.Artist,
		Title:               ed.Title,
		Composer:            ed.Composer,
		Work:                ed.Work,
		Category:            ed.Category,
		SourceURL:           ed.SourceURL,
		CaptionLang:         ed.CaptionLang,
		Instrumental:        ed.Instrumental,
		Status:              string(ed.Status),
		SourceDurationSec:   ed.SourceDurationSec,
		AlignmentRoute:      ed.AlignmentRoute,
		AlignmentConfidence: ed.AlignmentConfidence,
		RevisionNotes:       ed.RevisionNotes,
		ErrorMessage:        ed.ErrorMessage,
		CreatedAt:           ed.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           ed.UpdatedAt.Format(time.RFC3339),
	}
	if ed.HasWindow() {
		resp.Window = &WindowResponse{
			StartSec:    *ed.WindowStartSec,
			EndSec:      *ed.WindowEndSec,
			DurationSec: *ed.WindowDurationSec,
		}
	}
	return resp
}

func RenderJobToResponse(job edition.RenderJob) RenderJobResponse {
	return RenderJobResponse{
		Lang:         job.Lang,
		Status:       string(job.Status),
		OutputPath:   job.OutputPath,
		SizeBytes:    job.SizeBytes,
		ErrorMessage: job.ErrorMessage,
		UpdatedAt:    job.UpdatedAt.Format(time.RFC3339),
	}
}

func TranslationToResponse(tr edition.Translation) TranslationResponse {
	return TranslationResponse{
		Lang:         tr.Lang,
		Title:        tr.Title,
		CaptionsJSON: tr.CaptionsJSON,
		OverlayJSON:  tr.OverlayJSON,
		Tags:         tr.Tags,
		ErrorMessage: tr.ErrorMessage,
		UpdatedAt:    tr.UpdatedAt.Format(time.RFC3339),
	}
}
