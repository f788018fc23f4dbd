package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"libretto/internal/config"
)

const userAgent = "Libretto/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyPreviewReady(ctx context.Context, artist, title string) error
	NotifyBatchCompleted(ctx context.Context, artist, title string, languages int) error
	NotifyBatchFailed(ctx context.Context, artist, title string, completed, errored int) error
	NotifyStageFailure(ctx context.Context, stage, title string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPreviewReady(ctx context.Context, artist, title string) error {
	data := payload{
		title:    "Libretto - Preview Ready",
		message:  fmt.Sprintf("Preview ready for review: %s", clipLabel(artist, title)),
		tags:     []string{"libretto", "preview", "ready"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, artist, title string, languages int) error {
	data := payload{
		title:   "Libretto - Renders Complete",
		message: fmt.Sprintf("All %d languages rendered: %s", languages, clipLabel(artist, title)),
		tags:    []string{"libretto", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchFailed(ctx context.Context, artist, title string, completed, errored int) error {
	data := payload{
		title: "Libretto - Renders Failed",
		message: fmt.Sprintf("%s: %d languages rendered, %d failed; completed artifacts remain available",
			clipLabel(artist, title), completed, errored),
		tags:     []string{"libretto", "render", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageFailure(ctx context.Context, stage, title string, err error) error {
	var builder strings.Builder
	builder.WriteString("Stage ")
	builder.WriteString(strings.TrimSpace(stage))
	builder.WriteString(" failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(" for ")
		builder.WriteString(title)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Libretto - Stage Failure",
		message:  builder.String(),
		tags:     []string{"libretto", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Libretto - Test",
		message:  "Notification system test",
		tags:     []string{"libretto", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func clipLabel(artist, title string) string {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case artist != "":
		return artist
	default:
		return "untitled edition"
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPreviewReady(context.Context, string, string) error          { return nil }
func (noopService) NotifyBatchCompleted(context.Context, string, string, int) error   { return nil }
func (noopService) NotifyBatchFailed(context.Context, string, string, int, int) error { return nil }
func (noopService) NotifyStageFailure(context.Context, string, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
