// Package transcriber calls the external transcription worker. The worker
// owns audio extraction and alignment; this client only starts jobs and
// fetches finished segment lists.
package transcriber

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
	"libretto/internal/edition"
	"libretto/internal/logging"
	"libretto/internal/segment"
	"libretto/internal/services"
)

const component = "transcriber"

// Result is a finished transcription: the alignment route the worker chose
// and the raw segment list, ordered by start time.
type Result struct {
	Route    string
	Segments []segment.Segment
}

// Client talks to the transcription worker over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New builds a transcription client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Workers.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Workers.TranscriberURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, component),
	}
}

// Start asks the worker to transcribe an edition's source. The worker
// answers immediately; completion is observed through Fetch.
func (c *Client) Start(ctx context.Context, ed *edition.Edition) error {
	body, _ := sjson.Set("", "edition_id", ed.ID)
	body, _ = sjson.Set(body, "source_url", ed.SourceURL)
	body, _ = sjson.Set(body, "lang", ed.CaptionLang)
	body, _ = sjson.Set(body, "instrumental", ed.Instrumental)

	url := fmt.Sprintf("%s/v1/transcriptions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "start", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "start", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		// Already transcribing this edition; the poll loop picks it up.
		return nil
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, component, "start",
			fmt.Sprintf("worker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return services.Wrap(services.ErrExternalTool, component, "start",
			fmt.Sprintf("worker returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}
	return nil
}

// Fetch returns a finished transcription, or a transient error while the
// worker is still running or the source audio is not available yet.
func (c *Client) Fetch(ctx context.Context, editionID int64) (*Result, error) {
	url := fmt.Sprintf("%s/v1/transcriptions/%d", c.baseURL, editionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "fetch", "build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "fetch", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrTransient, component, "fetch", "transcription not ready", nil)
	case resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, component, "fetch",
			fmt.Sprintf("worker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrExternalTool, component, "fetch",
			fmt.Sprintf("worker returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "fetch", "read response", err)
	}
	return parseResult(payload)
}

func parseResult(payload []byte) (*Result, error) {
	doc := gjson.ParseBytes(payload)
	switch doc.Get("status").String() {
	case "completed":
	case "error":
		return nil, services.Wrap(services.ErrExternalTool, component, "fetch",
			strings.TrimSpace(doc.Get("message").String()), nil)
	default:
		return nil, services.Wrap(services.ErrTransient, component, "fetch", "transcription still running", nil)
	}

	result := &Result{Route: doc.Get("route").String()}
	for _, entry := range doc.Get("segments").Array() {
		flag, ok := segment.ParseFlag(entry.Get("flag").String())
		if !ok {
			flag = segment.FlagAmbiguous
		}
		result.Segments = append(result.Segments, segment.Segment{
			StartSec:      entry.Get("start_sec").Float(),
			EndSec:        entry.Get("end_sec").Float(),
			TextSource:    entry.Get("text").String(),
			TextFinal:     entry.Get("text").String(),
			CandidateText: entry.Get("candidate_text").String(),
			Flag:          flag,
			Confidence:    entry.Get("confidence").Float(),
		})
	}
	if len(result.Segments) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, component, "fetch", "worker returned no segments", nil)
	}
	segment.SortByStart(result.Segments)
	return result, nil
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(body))
}
