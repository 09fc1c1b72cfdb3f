package service

import (
	"context"
	"time"

	"github.com/feedlens/analytics-server/internal/repository/models"
)

// FeedbackStore supplies raw feedback rows for a window, with category
// mappings and provider names already resolved. Category and quality
// filtering beyond what the store applies happens engine-side.
type FeedbackStore interface {
	QueryFeedback(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error)
}
