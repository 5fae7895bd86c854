package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// KeystoreRepository persists the session key-value pairs (token, user record,
// Google signup staging) across CLI invocations. It implements session.Store.
type KeystoreRepository struct {
	db *sql.DB
}

// NewKeystoreRepository creates a new [KeystoreRepository] with the given database connection
func NewKeystoreRepository(db *sql.DB) *KeystoreRepository {
	return &KeystoreRepository{db: db}
}

// Get retrieves a value by key. The second return distinguishes a missing key
// from an empty value.
func (r *KeystoreRepository) Get(key string) (string, bool, error) {
	query := `SELECT value FROM keystore WHERE key = ?`

	var value string
	err := r.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query keystore: %w", err)
	}

	return value, true, nil
}

// Set inserts or replaces a value for the given key.
func (r *KeystoreRepository) Set(key, value string) error {
	query := `
		INSERT INTO keystore (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write keystore entry: %w", err)
	}

	return nil
}

// Delete removes the given keys in one statement. Missing keys are not an error.
func (r *KeystoreRepository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(keys)-1) + "?"
	query := fmt.Sprintf("DELETE FROM keystore WHERE key IN (%s)", placeholders)

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete keystore entries: %w", err)
	}

	return nil
}
