package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/testivid/testivid/internal/models"
)

// QuestionCacheRepository caches a company's question list so the questions
// command can render the last known set when the backend is unreachable.
type QuestionCacheRepository struct {
	db *sql.DB
}

// NewQuestionCacheRepository creates a new [QuestionCacheRepository] with the given database connection
func NewQuestionCacheRepository(db *sql.DB) *QuestionCacheRepository {
	return &QuestionCacheRepository{db: db}
}

// Replace swaps the cached question set for a company with a fresh fetch.
// The delete and inserts run in one transaction so a failed refresh never
// leaves a partial cache.
func (r *QuestionCacheRepository) Replace(companyID string, questions []models.Question) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM question_cache WHERE company_id = ?", companyID); err != nil {
		return fmt.Errorf("failed to clear question cache: %w", err)
	}

	query := `
		INSERT INTO question_cache (id, company_id, text, position, fetched_at) VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	for _, q := range questions {
		if _, err := tx.Exec(query, q.ID, companyID, q.Text, q.Position, now); err != nil {
			return fmt.Errorf("failed to insert cached question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question cache: %w", err)
	}

	return nil
}

// List retrieves the cached questions for a company in position order.
func (r *QuestionCacheRepository) List(companyID string) ([]models.Question, error) {
	query := `
		SELECT id, text, position
		FROM question_cache
		WHERE company_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query question cache: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q := models.Question{CompanyID: companyID}
		if err := rows.Scan(&q.ID, &q.Text, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan cached question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return questions, nil
}

// FetchedAt returns when the company's cache was last refreshed, zero when
// the cache is empty.
func (r *QuestionCacheRepository) FetchedAt(companyID string) (time.Time, error) {
	// MAX() strips the column's declared type, which breaks time scanning, so
	// order on the raw column instead.
	query := `SELECT fetched_at FROM question_cache WHERE company_id = ? ORDER BY fetched_at DESC LIMIT 1`

	var fetched time.Time
	if err := r.db.QueryRow(query, companyID).Scan(&fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to query cache age: %w", err)
	}

	return fetched, nil
}
