package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

// SubmissionRepository keeps a local history of completed testimonial
// submissions. It implements recording.History.
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new [SubmissionRepository] with the given database connection
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Save inserts a submission record with a generated ID and sequence.
func (r *SubmissionRepository) Save(ctx context.Context, record models.SubmissionRecord) error {
	sequence, err := NextSequence(r.db, "submissions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	record.Sequence = sequence

	if record.ID == "" {
		record.ID = shared.GenerateID()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now()
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	urls, err := json.Marshal(record.VideoURLs)
	if err != nil {
		return fmt.Errorf("failed to encode video urls: %w", err)
	}

	query := `
		INSERT INTO submissions (id, sequence, testimonial_id, customer_name, video_count, video_urls, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, record.ID, record.Sequence, record.TestimonialID,
		record.CustomerName, record.VideoCount, string(urls), record.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

// List retrieves all recorded submissions, oldest first.
func (r *SubmissionRepository) List() ([]models.SubmissionRecord, error) {
	query := `
		SELECT id, sequence, testimonial_id, customer_name, video_count, video_urls, submitted_at
		FROM submissions
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var records []models.SubmissionRecord
	for rows.Next() {
		var (
			record models.SubmissionRecord
			urls   string
		)
		err := rows.Scan(&record.ID, &record.Sequence, &record.TestimonialID,
			&record.CustomerName, &record.VideoCount, &urls, &record.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &record.VideoURLs); err != nil {
			return nil, fmt.Errorf("failed to decode video urls: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
