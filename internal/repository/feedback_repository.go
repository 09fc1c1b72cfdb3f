package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/feedlens/analytics-server/internal/repository/models"
)

// FeedbackRepository reads feedback rows from the relational store. Window
// and identity filters are applied in SQL; category mappings and provider
// names are resolved via joins.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// QueryFeedback fetches feedback rows in [start, end], optionally narrowed
// to a project, a user and a category id set. Timestamps are stored as
// RFC3339 text.
func (r *FeedbackRepository) QueryFeedback(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT f.id, f.project_id, f.user_id, f.user_name, f.avatar_url,
		       f.category, f.severity, f.sentiment,
		       f.specificity_score, f.actionability_score, f.novelty_score,
		       f.response_time_hours, f.created_at
		FROM feedback AS f
		WHERE f.created_at >= ? AND f.created_at <= ?
	`)
	args := []any{start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)}

	if projectID != "" {
		query.WriteString(" AND f.project_id = ?")
		args = append(args, projectID)
	}
	if userID != "" {
		query.WriteString(" AND f.user_id = ?")
		args = append(args, userID)
	}
	if len(categoryIDs) > 0 {
		query.WriteString(` AND EXISTS (
			SELECT 1 FROM feedback_categories AS fc
			WHERE fc.feedback_id = f.id AND fc.category_id IN (` + placeholders(len(categoryIDs)) + `)
		)`)
		for _, id := range categoryIDs {
			args = append(args, id)
		}
	}
	query.WriteString(" ORDER BY f.created_at")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var records []models.FeedbackRecord
	byID := make(map[string]int)
	for rows.Next() {
		rec, err := scanFeedbackRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		byID[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	if err := r.attachCategories(ctx, records, byID); err != nil {
		return nil, err
	}
	return records, nil
}

func scanFeedbackRow(rows *sql.Rows) (models.FeedbackRecord, error) {
	var (
		rec       models.FeedbackRecord
		avatarURL sql.NullString
		category  sql.NullString
		sentiment sql.NullFloat64
		spec      sql.NullFloat64
		action    sql.NullFloat64
		novelty   sql.NullFloat64
		response  sql.NullFloat64
		createdAt string
	)

	err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.UserID, &rec.UserName, &avatarURL,
		&category, &rec.Severity, &sentiment,
		&spec, &action, &novelty,
		&response, &createdAt)
	if err != nil {
		return rec, err
	}

	if avatarURL.Valid {
		rec.AvatarURL = &avatarURL.String
	}
	rec.Category = category.String
	rec.Sentiment = nullableFloat(sentiment)
	rec.SpecificityScore = nullableFloat(spec)
	rec.ActionabilityScore = nullableFloat(action)
	rec.NoveltyScore = nullableFloat(novelty)
	rec.ResponseTimeHours = nullableFloat(response)

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return rec, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// attachCategories resolves the category mappings of the fetched rows in a
// single join query.
func (r *FeedbackRepository) attachCategories(ctx context.Context, records []models.FeedbackRecord, byID map[string]int) error {
	ids := make([]any, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}

	query := `
		SELECT fc.feedback_id, c.id, c.name
		FROM feedback_categories AS fc
		JOIN categories AS c ON c.id = fc.category_id
		WHERE fc.feedback_id IN (` + placeholders(len(ids)) + `)
		ORDER BY fc.feedback_id, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("query category mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var feedbackID string
		var mapping models.CategoryMapping
		if err := rows.Scan(&feedbackID, &mapping.CategoryID, &mapping.CategoryName); err != nil {
			return fmt.Errorf("scan category mapping: %w", err)
		}
		if idx, ok := byID[feedbackID]; ok {
			records[idx].Categories = append(records[idx].Categories, mapping)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate category mappings: %w", err)
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
