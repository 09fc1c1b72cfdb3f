package repository

import (
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id                  TEXT PRIMARY KEY,
		project_id          TEXT NOT NULL,
		user_id             TEXT NOT NULL,
		user_name           TEXT NOT NULL DEFAULT '',
		avatar_url          TEXT,
		created_at          TEXT NOT NULL,
		category            TEXT,
		severity            INTEGER NOT NULL DEFAULT 0,
		sentiment           REAL,
		specificity_score   REAL,
		actionability_score REAL,
		novelty_score       REAL,
		response_time_hours REAL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_categories (
		feedback_id TEXT NOT NULL REFERENCES feedback(id),
		category_id TEXT NOT NULL REFERENCES categories(id),
		PRIMARY KEY (feedback_id, category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_project_created
		ON feedback (project_id, created_at)`,
}

// EnsureSchema creates the feedback tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
