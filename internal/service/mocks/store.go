package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/feedlens/analytics-server/internal/repository/models"
)

// MockFeedbackStore is a mock implementation of the FeedbackStore interface
// for testing the service layer.
type MockFeedbackStore struct {
	QueryFeedbackFunc func(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error)
	Calls             int
}

// QueryFeedback implements the FeedbackStore interface
func (m *MockFeedbackStore) QueryFeedback(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error) {
	m.Calls++
	if m.QueryFeedbackFunc != nil {
		return m.QueryFeedbackFunc(ctx, projectID, userID, start, end, categoryIDs)
	}
	return nil, errors.New("QueryFeedbackFunc not implemented")
}
