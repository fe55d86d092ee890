package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ohopus/internal/config"
	"ohopus/internal/queue"
)

const userAgent = "Ohopus-Go/0.1.0"

// Service defines the notification surface exposed to the batch pipeline.
type Service interface {
	BatchStarted(ctx context.Context, batchID string, total int) error
	BatchFinished(ctx context.Context, batchID string, counts queue.Counts) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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

func (n *ntfyService) BatchStarted(ctx context.Context, batchID string, total int) error {
	data := payload{
		title:   "Ohopus - Batch Started",
		message: fmt.Sprintf("Started converting %d files (batch %s)", total, shortID(batchID)),
		tags:    []string{"ohopus", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) BatchFinished(ctx context.Context, batchID string, counts queue.Counts) error {
	var title, message string
	switch {
	case counts.Cancelled > 0 && counts.Completed+counts.Failed+counts.Skipped == 0:
		title = "Ohopus - Batch Cancelled"
		message = fmt.Sprintf("Batch %s cancelled before any conversions finished", shortID(batchID))
	case counts.Failed == 0:
		title = "Ohopus - Batch Complete"
		message = fmt.Sprintf("Converted %d files (%d skipped)", counts.Completed, counts.Skipped)
	default:
		title = "Ohopus - Batch Complete (with errors)"
		message = fmt.Sprintf("Converted %d files, %d failed, %d skipped", counts.Completed, counts.Failed, counts.Skipped)
	}
	if counts.Cancelled > 0 {
		message = fmt.Sprintf("%s, %d cancelled", message, counts.Cancelled)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"ohopus", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Ohopus - Error",
		message:  builder.String(),
		tags:     []string{"ohopus", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Ohopus - Test",
		message:  "Notification system test",
		tags:     []string{"ohopus", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) BatchStarted(context.Context, string, int) error           { return nil }
func (noopService) BatchFinished(context.Context, string, queue.Counts) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
