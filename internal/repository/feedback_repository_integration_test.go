package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedlens/analytics-server/internal/repository"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repository.EnsureSchema(db))

	return db
}

func seedTestData(t *testing.T, db *sql.DB, baseTime time.Time) {
	t.Helper()

	_, err := db.Exec(`
	INSERT INTO categories (id, name)
	VALUES ('c1', 'Usability'), ('c2', 'Performance');
	`)
	require.NoError(t, err)

	feedback := []struct {
		id, project, user, userName string
		legacyCategory              string
		sentiment                   any
		spec, action, novelty       any
		response                    any
		offset                      time.Duration
	}{
		{id: "f1", project: "p1", user: "u1", userName: "Ada", sentiment: 0.8, spec: 0.9, action: 0.9, novelty: 0.9, response: 2.0, offset: 0},
		{id: "f2", project: "p1", user: "u2", userName: "Ben", sentiment: -0.6, spec: 0.4, action: 0.4, novelty: 0.4, offset: time.Hour},
		{id: "f3", project: "p1", user: "u1", userName: "Ada", legacyCategory: "Bug", offset: 24 * time.Hour},
		{id: "f4", project: "p2", user: "u3", userName: "Cyd", spec: 0.7, action: 0.7, novelty: 0.7, offset: 0},
		{id: "f5", project: "p1", user: "u1", userName: "Ada", offset: 30 * 24 * time.Hour}, // outside most windows
	}

	for _, f := range feedback {
		legacy := any(nil)
		if f.legacyCategory != "" {
			legacy = f.legacyCategory
		}
		_, err := db.Exec(`
			INSERT INTO feedback (id, project_id, user_id, user_name, category, sentiment,
				specificity_score, actionability_score, novelty_score, response_time_hours, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`, f.id, f.project, f.user, f.userName, legacy, f.sentiment,
			f.spec, f.action, f.novelty, f.response,
			baseTime.Add(f.offset).UTC().Format(time.RFC3339))
		require.NoError(t, err)
	}

	_, err = db.Exec(`
	INSERT INTO feedback_categories (feedback_id, category_id)
	VALUES ('f1', 'c1'), ('f1', 'c2'), ('f2', 'c2'), ('f4', 'c1');
	`)
	require.NoError(t, err)
}

func TestQueryFeedback(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	db := setupTestDB(t)
	seedTestData(t, db, base)
	repo := repository.NewFeedbackRepository(db)

	windowEnd := base.Add(7 * 24 * time.Hour)

	t.Run("window filter", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "", "", base, windowEnd, nil)
		require.NoError(t, err)
		assert.Len(t, records, 4, "f5 is outside the window")
	})

	t.Run("project filter", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "p1", "", base, windowEnd, nil)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("user filter", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "p1", "u1", base, windowEnd, nil)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("category filter keeps any-match rows", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "", "", base, windowEnd, []string{"c1"})
		require.NoError(t, err)
		require.Len(t, records, 2)
		ids := []string{records[0].ID, records[1].ID}
		assert.ElementsMatch(t, []string{"f1", "f4"}, ids)
	})

	t.Run("category mappings are resolved", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "p1", "", base, windowEnd, nil)
		require.NoError(t, err)

		byID := map[string]int{}
		for i, rec := range records {
			byID[rec.ID] = i
		}

		f1 := records[byID["f1"]]
		require.Len(t, f1.Categories, 2)
		assert.Equal(t, "c1", f1.Categories[0].CategoryID)
		assert.Equal(t, "Usability", f1.Categories[0].CategoryName)

		f3 := records[byID["f3"]]
		assert.Empty(t, f3.Categories)
		assert.Equal(t, "Bug", f3.Category)
	})

	t.Run("optional fields map to nil pointers", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "p1", "", base, windowEnd, nil)
		require.NoError(t, err)

		var f1, f3 int
		for i, rec := range records {
			switch rec.ID {
			case "f1":
				f1 = i
			case "f3":
				f3 = i
			}
		}

		require.NotNil(t, records[f1].SpecificityScore)
		assert.InDelta(t, 0.9, *records[f1].SpecificityScore, 1e-9)
		require.NotNil(t, records[f1].ResponseTimeHours)

		assert.Nil(t, records[f3].SpecificityScore)
		assert.Nil(t, records[f3].Sentiment)
		assert.Nil(t, records[f3].ResponseTimeHours)
	})

	t.Run("rows are ordered by creation time", func(t *testing.T) {
		records, err := repo.QueryFeedback(ctx, "p1", "", base, windowEnd, nil)
		require.NoError(t, err)
		for i := 1; i < len(records); i++ {
			assert.False(t, records[i].CreatedAt.Before(records[i-1].CreatedAt))
		}
	})

	t.Run("empty window returns no rows", func(t *testing.T) {
		farFuture := base.Add(365 * 24 * time.Hour)
		records, err := repo.QueryFeedback(ctx, "", "", farFuture, farFuture.Add(time.Hour), nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
