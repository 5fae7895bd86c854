package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

func reminderBackend(t *testing.T, requests []models.TestimonialRequest, failIDs map[string]bool) (*api.Client, *[]string) {
	t.Helper()
	var reminded []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/testimonials/requests":
			json.NewEncoder(w).Encode(map[string]any{"requests": requests})
		case strings.HasSuffix(r.URL.Path, "/remind"):
			parts := strings.Split(r.URL.Path, "/")
			id := parts[len(parts)-2]
			if failIDs[id] {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"message": "mail gateway down"})
				return
			}
			reminded = append(reminded, id)
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL, nil), &reminded
}

func TestRemindAll(t *testing.T) {
	t.Run("Explicit IDs", func(t *testing.T) {
		client, reminded := reminderBackend(t, nil, nil)
		engine := NewReminderEngine(client, shared.NewLogger(nil))

		result, err := engine.RemindAll(context.Background(), nil, []string{"r1", "r2"}, ReminderOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Total != 2 || result.SuccessCount != 2 || result.FailedCount != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(*reminded) != 2 {
			t.Errorf("expected 2 reminder calls, got %d", len(*reminded))
		}
	})

	t.Run("Fetches Pending Requests When No IDs Given", func(t *testing.T) {
		requests := []models.TestimonialRequest{
			{ID: "r1", CustomerName: "Jane Doe", Status: "pending"},
			{ID: "r2", CustomerName: "Sam Lee", Status: "completed"},
			{ID: "r3", CustomerName: "Ada King", Status: "pending"},
		}
		client, reminded := reminderBackend(t, requests, nil)
		engine := NewReminderEngine(client, shared.NewLogger(nil))

		result, err := engine.RemindAll(context.Background(), nil, nil, ReminderOpts{CompanyID: "co-1", RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Total != 2 {
			t.Errorf("expected only pending requests, got %d", result.Total)
		}
		if len(*reminded) != 2 || (*reminded)[0] != "r1" || (*reminded)[1] != "r3" {
			t.Errorf("unexpected reminder order: %v", *reminded)
		}
	})

	t.Run("Partial Failures Are Collected", func(t *testing.T) {
		client, _ := reminderBackend(t, nil, map[string]bool{"r2": true})
		engine := NewReminderEngine(client, shared.NewLogger(nil))

		result, err := engine.RemindAll(context.Background(), nil, []string{"r1", "r2", "r3"}, ReminderOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no fatal error, got %v", err)
		}
		if result.SuccessCount != 2 || result.FailedCount != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if result.Results[1].Error == nil || result.Results[1].Success {
			t.Errorf("expected failure recorded for r2: %+v", result.Results[1])
		}
	})

	t.Run("Progress Updates Are Non-Blocking", func(t *testing.T) {
		client, _ := reminderBackend(t, nil, nil)
		engine := NewReminderEngine(client, shared.NewLogger(nil))

		// Unbuffered channel with no receiver; sends must be dropped, not block.
		prog := make(chan ProgressUpdate)
		result, err := engine.RemindAll(context.Background(), prog, []string{"r1", "r2"}, ReminderOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.SuccessCount != 2 {
			t.Errorf("expected 2 successes, got %d", result.SuccessCount)
		}
	})

	t.Run("Progress Messages", func(t *testing.T) {
		client, _ := reminderBackend(t, nil, nil)
		engine := NewReminderEngine(client, shared.NewLogger(nil))

		prog := make(chan ProgressUpdate, 8)
		if _, err := engine.RemindAll(context.Background(), prog, []string{"r1"}, ReminderOpts{RateLimit: 1000}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(prog)

		var messages []string
		for update := range prog {
			messages = append(messages, update.Message)
		}
		if len(messages) != 1 || !strings.Contains(messages[0], "r1") {
			t.Errorf("unexpected progress messages: %v", messages)
		}
	})

	t.Run("Nil Client", func(t *testing.T) {
		engine := NewReminderEngine(nil, shared.NewLogger(nil))
		if _, err := engine.RemindAll(context.Background(), nil, []string{"r1"}, ReminderOpts{}); err == nil {
			t.Error("expected service unavailable error")
		}
	})
}

func TestPendingRequests(t *testing.T) {
	requests := []models.TestimonialRequest{
		{ID: "r1", Status: "pending"},
		{ID: "r2", Status: "completed"},
		{ID: "r3", Status: "pending"},
	}

	pending := PendingRequests(requests)
	if len(pending) != 2 || pending[0].ID != "r1" || pending[1].ID != "r3" {
		t.Errorf("unexpected pending set: %+v", pending)
	}
}
