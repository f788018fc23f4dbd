package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"libretto/internal/edition"
	"libretto/internal/export"
	"libretto/internal/lifecycle"
	"libretto/internal/logging"
	"libretto/internal/segment"
)

// NewRouter wires the full edition surface onto a chi mux.
func NewRouter(deps Deps) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(deps.Logger))
	r.Use(LoggingMiddleware(deps.Logger))

	r.Get("/health", healthHandler(deps))

	r.Route("/v1/editions", func(r chi.Router) {
		r.Get("/", listEditionsHandler(deps))
		r.Post("/", createEditionHandler(deps))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getEditionHandler(deps))
			r.Delete("/", deleteEditionHandler(deps))
			r.Post("/download", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.BeginDownload(r.Context(), id)
			}))
			r.Post("/source-ready", sourceReadyHandler(deps))
			r.Post("/lyrics/approve", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.ApproveLyrics(r.Context(), id)
			}))
			r.Put("/segments", submitSegmentsHandler(deps))
			r.Post("/cut", cutHandler(deps))
			r.Post("/preview", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.RequestPreview(r.Context(), id)
			}))
			r.Post("/approve", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.ApprovePreview(r.Context(), id)
			}))
			r.Post("/revise", reviseHandler(deps))
			r.Post("/render", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.RetryRender(r.Context(), id, "")
			}))
			r.Post("/render/{lang}", actionHandler(deps, func(d Deps, r *http.Request, id int64) (*edition.Edition, error) {
				return d.Controller.RetryRender(r.Context(), id, chi.URLParam(r, "lang"))
			}))
			r.Get("/renders", listRendersHandler(deps))
			r.Get("/translations", listTranslationsHandler(deps))
			r.Get("/export", exportHandler(deps))
		})
	})

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: deps.Version,
			UptimeS: int64(time.Since(deps.StartTime).Seconds()),
		})
	}
}

func listEditionsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []edition.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, ok := edition.ParseStatus(raw)
			if !ok {
				WriteError(w, http.StatusBadRequest, "unknown status "+raw, "VALIDATION")
				return
			}
			statuses = append(statuses, status)
		}

		editions, err := deps.Store.List(r.Context(), statuses...)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := EditionsResponse{Editions: make([]EditionResponse, len(editions))}
		for i, ed := range editions {
			resp.Editions[i] = EditionToResponse(ed)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createEditionHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateEditionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
			return
		}
		ed, err := deps.Controller.Register(r.Context(), edition.NewParams{
			Artist:       req.Artist,
			Title:        req.Title,
			Composer:     req.Composer,
			Work:         req.Work,
			Category:     req.Category,
			SourceURL:    req.SourceURL,
			CaptionLang:  req.CaptionLang,
			Instrumental: req.Instrumental,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, EditionToResponse(ed))
	}
}

func getEditionHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		ed, err := deps.Store.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if ed == nil {
			WriteError(w, http.StatusNotFound, "edition not found", "NOT_FOUND")
			return
		}

		segments, err := deps.Store.ListSegments(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		jobs, err := deps.Store.ListRenderJobs(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := EditionDetailResponse{
			EditionResponse: EditionToResponse(ed),
			Segments:        segments,
			RenderJobs:      make([]RenderJobResponse, len(jobs)),
		}
		if resp.Segments == nil {
			resp.Segments = []segment.Segment{}
		}
		for i, job := range jobs {
			resp.RenderJobs[i] = RenderJobToResponse(*job)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func deleteEditionHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		removed, err := deps.Store.Remove(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !removed {
			WriteError(w, http.StatusNotFound, "edition not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sourceReadyHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		var req SourceReadyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
			return
		}
		ed, err := deps.Controller.SourceReady(r.Context(), id, req.DurationSec)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditionToResponse(ed))
	}
}

func submitSegmentsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		var req SegmentsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
			return
		}
		ed, err := deps.Controller.SubmitSegments(r.Context(), id, req.Segments)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditionToResponse(ed))
	}
}

func cutHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		var req CutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
			return
		}
		var override *lifecycle.CutOverride
		if req.StartSec != nil || req.EndSec != nil {
			if req.StartSec == nil || req.EndSec == nil {
				WriteError(w, http.StatusBadRequest, "start_sec and end_sec must be set together", "VALIDATION")
				return
			}
			override = &lifecycle.CutOverride{StartSec: *req.StartSec, EndSec: *req.EndSec}
		}
		ed, err := deps.Controller.ApplyCut(r.Context(), id, override)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditionToResponse(ed))
	}
}

func reviseHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		var req ReviseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
			return
		}
		ed, err := deps.Controller.RequestRevision(r.Context(), id, req.Notes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditionToResponse(ed))
	}
}

func listRendersHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		jobs, err := deps.Store.ListRenderJobs(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := RenderJobsResponse{Jobs: make([]RenderJobResponse, len(jobs))}
		for i, job := range jobs {
			resp.Jobs[i] = RenderJobToResponse(*job)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listTranslationsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		translations, err := deps.Store.ListTranslations(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := TranslationsResponse{Translations: make([]TranslationResponse, len(translations))}
		for i, tr := range translations {
			resp.Translations[i] = TranslationToResponse(*tr)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func exportHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		ed, err := deps.Store.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if ed == nil {
			WriteError(w, http.StatusNotFound, "edition not found", "NOT_FOUND")
			return
		}
		jobs, err := deps.Store.ListRenderJobs(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		translations, err := deps.Store.ListTranslations(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		manifest, err := export.Build(ed, jobs, translations, deps.Languages)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, manifest)
	}
}

// actionHandler wraps the bodyless POST actions that run one controller
// operation and return the updated edition.
func actionHandler(deps Deps, run func(Deps, *http.Request, int64) (*edition.Edition, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := editionID(w, r)
		if !ok {
			return
		}
		ed, err := run(deps, r, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditionToResponse(ed))
	}
}

func editionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid edition id", "VALIDATION")
		return 0, false
	}
	return id, true
}
