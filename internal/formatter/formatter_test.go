package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/testivid/testivid/internal/models"
)

func TestTables(t *testing.T) {
	t.Run("QuestionsTable", func(t *testing.T) {
		questions := []models.Question{
			{ID: "q1", Text: "What problem were you solving?", Position: 0},
			{ID: "q2", Text: "What changed after adopting the product?", Position: 1},
		}

		output := QuestionsTable(questions)

		for _, want := range []string{"Question", "q1", "q2", "What problem were you solving?"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
		if strings.Index(output, "q1") > strings.Index(output, "q2") {
			t.Error("expected questions in position order")
		}
	})

	t.Run("RequestsTable", func(t *testing.T) {
		requests := []models.TestimonialRequest{
			{ID: "r1", CustomerName: "Jane Doe", CustomerEmail: "jane@acme.io", Status: "pending",
				CreatedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		}

		output := RequestsTable(requests)

		for _, want := range []string{"Jane Doe", "jane@acme.io", "pending", "2026-03-14"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("TestimonialsTable", func(t *testing.T) {
		testimonials := []models.Testimonial{
			{ID: "t1", CustomerName: "Jane Doe", CustomerTitle: "CTO",
				Videos: []models.TestimonialVideo{{ID: "v1"}, {ID: "v2"}}, MergedURL: "https://cdn/merged.mp4"},
			{ID: "t2", CustomerName: "Sam Lee"},
		}

		output := TestimonialsTable(testimonials)

		if !strings.Contains(output, "yes") {
			t.Error("expected merged marker for t1")
		}
		if !strings.Contains(output, "Jane Doe") || !strings.Contains(output, "Sam Lee") {
			t.Errorf("table missing customers, got:\n%s", output)
		}
	})

	t.Run("StatsTable", func(t *testing.T) {
		output := StatsTable(models.Stats{TotalRequests: 12, PendingRequests: 3, CompletedRequests: 9, TotalVideos: 27})

		for _, want := range []string{"Total requests", "12", "27"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("SubmissionsTable", func(t *testing.T) {
		records := []models.SubmissionRecord{
			{Sequence: 1, TestimonialID: "t1", CustomerName: "Jane Doe", VideoCount: 2,
				SubmittedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)},
		}

		output := SubmissionsTable(records)

		if !strings.Contains(output, "t1") || !strings.Contains(output, "Jane Doe") {
			t.Errorf("table missing record fields, got:\n%s", output)
		}
	})

	t.Run("Empty Rows", func(t *testing.T) {
		output := QuestionsTable(nil)
		if !strings.Contains(output, "Question") {
			t.Errorf("expected header-only table, got:\n%s", output)
		}
	})
}

func TestTestimonialText(t *testing.T) {
	tm := &models.Testimonial{
		ID:            "t1",
		CustomerName:  "Jane Doe",
		CustomerTitle: "CTO",
		Company:       &models.Company{ID: "co-1", Name: "Acme"},
		Videos: []models.TestimonialVideo{
			{ID: "v1", QuestionID: "q1", URL: "https://cdn/v1.webm"},
			{ID: "v2", QuestionID: "q2", URL: "https://cdn/v2.webm"},
		},
		MergedURL: "https://cdn/merged.mp4",
	}

	output := string(TestimonialText(tm))

	for _, want := range []string{"Jane Doe", "(CTO)", "Acme", "https://cdn/merged.mp4", "1. https://cdn/v1.webm", "2. https://cdn/v2.webm"} {
		if !strings.Contains(output, want) {
			t.Errorf("text missing %q, got:\n%s", want, output)
		}
	}
}

func TestToJSON(t *testing.T) {
	data, err := ToJSON(models.Question{ID: "q1", Text: "Why?"})
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"id": "q1"`) {
		t.Errorf("expected pretty JSON, got: %s", data)
	}
}
