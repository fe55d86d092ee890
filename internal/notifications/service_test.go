package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ohopus/internal/config"
	"ohopus/internal/notifications"
	"ohopus/internal/queue"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCapturingService(t *testing.T) (notifications.Service, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	return notifications.NewService(&cfg), &requests
}

func TestNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.BatchStarted(context.Background(), "b", 3); err != nil {
		t.Fatalf("noop notifier returned %v", err)
	}
}

func TestBatchStartedPayload(t *testing.T) {
	svc, requests := newCapturingService(t)

	if err := svc.BatchStarted(context.Background(), "0b5e7a6c-1111-2222-3333-444455556666", 12); err != nil {
		t.Fatalf("BatchStarted: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Ohopus - Batch Started" {
		t.Errorf("title = %q", got.title)
	}
	if !strings.Contains(got.body, "12 files") || !strings.Contains(got.body, "0b5e7a6c") {
		t.Errorf("body = %q", got.body)
	}
}

func TestBatchFinishedFormatsCounts(t *testing.T) {
	svc, requests := newCapturingService(t)

	counts := queue.Counts{Total: 5, Completed: 3, Failed: 1, Skipped: 1}
	if err := svc.BatchFinished(context.Background(), "batch", counts); err != nil {
		t.Fatalf("BatchFinished: %v", err)
	}
	got := (*requests)[0]
	if !strings.Contains(got.title, "with errors") {
		t.Errorf("title = %q", got.title)
	}
	if !strings.Contains(got.body, "3 files") || !strings.Contains(got.body, "1 failed") {
		t.Errorf("body = %q", got.body)
	}
}

func TestNotifyErrorSetsHighPriority(t *testing.T) {
	svc, requests := newCapturingService(t)

	if err := svc.NotifyError(context.Background(), io.ErrUnexpectedEOF, "batch run"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	got := (*requests)[0]
	if got.priority != "high" {
		t.Errorf("priority = %q, want high", got.priority)
	}
	if !strings.Contains(got.body, "batch run") {
		t.Errorf("body = %q", got.body)
	}
}

func TestSendSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want 403 failure", err)
	}
}
