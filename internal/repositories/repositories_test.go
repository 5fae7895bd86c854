package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/session"
	"github.com/testivid/testivid/internal/shared"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestKeystoreRepository(t *testing.T) {
	// Compile-time check that the keystore satisfies the session store contract.
	var _ session.Store = (*KeystoreRepository)(nil)

	t.Run("Get Missing Key", func(t *testing.T) {
		repo := NewKeystoreRepository(testDB(t))

		value, ok, err := repo.Get("token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected missing key, got %q ok=%v", value, ok)
		}
	})

	t.Run("Set Then Get", func(t *testing.T) {
		repo := NewKeystoreRepository(testDB(t))

		if err := repo.Set("token", "abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		value, ok, err := repo.Get("token")
		if err != nil || !ok || value != "abc" {
			t.Errorf("expected stored value, got %q ok=%v err=%v", value, ok, err)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		repo := NewKeystoreRepository(testDB(t))

		repo.Set("token", "old")
		if err := repo.Set("token", "new"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if value, _, _ := repo.Get("token"); value != "new" {
			t.Errorf("expected overwritten value, got %q", value)
		}
	})

	t.Run("Delete Multiple Keys", func(t *testing.T) {
		repo := NewKeystoreRepository(testDB(t))

		for _, key := range session.AllKeys {
			if err := repo.Set(key, "x"); err != nil {
				t.Fatalf("failed to seed key %s: %v", key, err)
			}
		}
		if err := repo.Delete(session.AllKeys...); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, key := range session.AllKeys {
			if _, ok, _ := repo.Get(key); ok {
				t.Errorf("expected key %s deleted", key)
			}
		}
	})

	t.Run("Delete Missing Keys Succeeds", func(t *testing.T) {
		repo := NewKeystoreRepository(testDB(t))
		if err := repo.Delete("nope", "also-nope"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if err := repo.Delete(); err != nil {
			t.Errorf("expected empty delete to be a no-op, got %v", err)
		}
	})
}

func TestQuestionCacheRepository(t *testing.T) {
	questions := []models.Question{
		{ID: "q2", Text: "What changed after adopting the product?", Position: 1},
		{ID: "q1", Text: "What problem were you solving?", Position: 0},
	}

	t.Run("Replace Then List In Position Order", func(t *testing.T) {
		repo := NewQuestionCacheRepository(testDB(t))

		if err := repo.Replace("co-1", questions); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cached, err := repo.List("co-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cached) != 2 {
			t.Fatalf("expected 2 cached questions, got %d", len(cached))
		}
		if cached[0].ID != "q1" || cached[1].ID != "q2" {
			t.Errorf("expected position order q1,q2 got %s,%s", cached[0].ID, cached[1].ID)
		}
	})

	t.Run("Replace Swaps The Set", func(t *testing.T) {
		repo := NewQuestionCacheRepository(testDB(t))

		repo.Replace("co-1", questions)
		if err := repo.Replace("co-1", []models.Question{{ID: "q9", Text: "New question", Position: 0}}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cached, _ := repo.List("co-1")
		if len(cached) != 1 || cached[0].ID != "q9" {
			t.Errorf("expected replaced set, got %+v", cached)
		}
	})

	t.Run("Companies Are Isolated", func(t *testing.T) {
		repo := NewQuestionCacheRepository(testDB(t))

		repo.Replace("co-1", questions)
		repo.Replace("co-2", []models.Question{{ID: "z1", Text: "Other company", Position: 0}})

		cached, _ := repo.List("co-1")
		if len(cached) != 2 {
			t.Errorf("expected co-1 cache untouched, got %d entries", len(cached))
		}
	})

	t.Run("FetchedAt", func(t *testing.T) {
		repo := NewQuestionCacheRepository(testDB(t))

		fetched, err := repo.FetchedAt("co-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !fetched.IsZero() {
			t.Error("expected zero time for empty cache")
		}

		repo.Replace("co-1", questions)
		fetched, err = repo.FetchedAt("co-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fetched.IsZero() || time.Since(fetched) > time.Minute {
			t.Errorf("expected recent fetch time, got %v", fetched)
		}
	})
}

func TestSubmissionRepository(t *testing.T) {
	t.Run("Save Assigns ID And Sequence", func(t *testing.T) {
		repo := NewSubmissionRepository(testDB(t))
		ctx := context.Background()

		first := models.SubmissionRecord{TestimonialID: "t-1", CustomerName: "Jane Doe", VideoCount: 2, VideoURLs: []string{"u1", "u2"}}
		second := models.SubmissionRecord{TestimonialID: "t-2", CustomerName: "Sam Lee", VideoCount: 1, VideoURLs: []string{"u3"}}

		if err := repo.Save(ctx, first); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Save(ctx, second); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		records, err := repo.List()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].ID == "" || records[0].Sequence != 1 {
			t.Errorf("expected generated id and sequence 1, got %+v", records[0])
		}
		if records[1].Sequence != 2 {
			t.Errorf("expected sequence 2, got %d", records[1].Sequence)
		}
		if len(records[0].VideoURLs) != 2 || records[0].VideoURLs[0] != "u1" {
			t.Errorf("expected round-tripped urls, got %v", records[0].VideoURLs)
		}
	})

	t.Run("Save Rejects Invalid Record", func(t *testing.T) {
		repo := NewSubmissionRepository(testDB(t))

		record := models.SubmissionRecord{CustomerName: "No Testimonial", VideoCount: 1, VideoURLs: []string{"u1"}}
		if err := repo.Save(context.Background(), record); err == nil {
			t.Error("expected validation error for missing testimonial id")
		}
	})

	t.Run("List Empty", func(t *testing.T) {
		repo := NewSubmissionRepository(testDB(t))

		records, err := repo.List()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})
}
