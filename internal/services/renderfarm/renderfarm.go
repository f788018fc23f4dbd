// Package renderfarm calls the external render worker. One render job exists
// per (edition, language); the worker burns the language's captions into the
// cut window and reports per-job terminal state through polling.
package renderfarm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"libretto/internal/config"
	"libretto/internal/logging"
	"libretto/internal/services"
)

const component = "renderfarm"

// StartRequest carries everything the worker needs to render one language.
type StartRequest struct {
	EditionID      int64
	Lang           string
	SourceURL      string
	WindowStartSec float64
	WindowEndSec   float64
	CaptionsJSON   string
	Title          string
}

// JobState is the worker's view of one render job.
type JobState struct {
	State      string
	OutputPath string
	SizeBytes  int64
	Message    string
}

// Terminal job states as reported by the worker.
const (
	StateCompleted = "completed"
	StateError     = "error"
)

// Client talks to the render worker over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New builds a render client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Workers.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Workers.RenderfarmURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, component),
	}
}

// Start dispatches one render job. The worker replaces any prior job for the
// same (edition, language) pair, which keeps re-render idempotent.
func (c *Client) Start(ctx context.Context, req StartRequest) error {
	body, _ := sjson.Set("", "edition_id", req.EditionID)
	body, _ = sjson.Set(body, "lang", req.Lang)
	body, _ = sjson.Set(body, "source_url", req.SourceURL)
	body, _ = sjson.Set(body, "window_start_sec", req.WindowStartSec)
	body, _ = sjson.Set(body, "window_end_sec", req.WindowEndSec)
	body, _ = sjson.Set(body, "title", req.Title)
	if req.CaptionsJSON != "" {
		body, _ = sjson.SetRaw(body, "captions", req.CaptionsJSON)
	}

	url := fmt.Sprintf("%s/v1/renders", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "start", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "start", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, component, "start",
			fmt.Sprintf("worker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return services.Wrap(services.ErrExternalTool, component, "start",
			fmt.Sprintf("worker returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}
	return nil
}

// JobStatus fetches the current state of one render job. A job the worker
// does not know yet reports a transient error.
func (c *Client) JobStatus(ctx context.Context, editionID int64, lang string) (*JobState, error) {
	url := fmt.Sprintf("%s/v1/renders/%d/%s", c.baseURL, editionID, lang)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "job status", "build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "job status", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrTransient, component, "job status", "job not registered yet", nil)
	case resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, component, "job status",
			fmt.Sprintf("worker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrExternalTool, component, "job status",
			fmt.Sprintf("worker returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "job status", "read response", err)
	}

	doc := gjson.ParseBytes(payload)
	return &JobState{
		State:      doc.Get("state").String(),
		OutputPath: doc.Get("output_path").String(),
		SizeBytes:  doc.Get("size_bytes").Int(),
		Message:    strings.TrimSpace(doc.Get("message").String()),
	}, nil
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(body))
}
