// Package translator calls the external translation worker for per-language
// caption, overlay, title, and tag content. Translation is best-effort: a
// failed language records its error on the translation row and never blocks
// the pipeline.
package translator

import (
	"context"
	"encoding/json"
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

const component = "translator"

// Content is the translated material for one target language.
type Content struct {
	Lang         string
	Title        string
	CaptionsJSON string
	OverlayJSON  string
	Tags         string
}

// Client talks to the translation worker over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New builds a translation client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Workers.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Workers.TranslatorURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, component),
	}
}

// Translate produces the content for one target language from the edition's
// windowed caption list. The call is synchronous; the worker translates one
// language per request.
func (c *Client) Translate(ctx context.Context, ed *edition.Edition, lang string, captions []segment.Segment) (*Content, error) {
	captionsJSON, err := json.Marshal(captions)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "translate", "marshal captions", err)
	}

	body, _ := sjson.Set("", "edition_id", ed.ID)
	body, _ = sjson.Set(body, "source_lang", ed.CaptionLang)
	body, _ = sjson.Set(body, "target_lang", lang)
	body, _ = sjson.Set(body, "title", ed.Title)
	body, _ = sjson.Set(body, "artist", ed.Artist)
	body, _ = sjson.SetRaw(body, "captions", string(captionsJSON))

	url := fmt.Sprintf("%s/v1/translations", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "translate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "translate", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, component, "translate",
			fmt.Sprintf("worker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrExternalTool, component, "translate",
			fmt.Sprintf("worker returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "translate", "read response", err)
	}

	doc := gjson.ParseBytes(payload)
	content := &Content{
		Lang:         lang,
		Title:        strings.TrimSpace(doc.Get("title").String()),
		CaptionsJSON: doc.Get("captions").Raw,
		OverlayJSON:  doc.Get("overlay").Raw,
		Tags:         strings.TrimSpace(doc.Get("tags").String()),
	}
	if content.CaptionsJSON == "" {
		return nil, services.Wrap(services.ErrExternalTool, component, "translate", "worker returned no captions", nil)
	}
	return content, nil
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(body))
}
