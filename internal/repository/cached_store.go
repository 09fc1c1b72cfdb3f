package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feedlens/analytics-server/internal/repository/models"
	"github.com/feedlens/analytics-server/pkg/cache"
)

// rowCacher is the slice of the shared cache the decorator needs.
type rowCacher interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// feedbackQuerier matches the repository read the decorator wraps.
type feedbackQuerier interface {
	QueryFeedback(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error)
}

// CachedFeedbackStore is a read-through Redis decorator over the feedback
// query. Misses are coalesced per key with singleflight and stored with a
// jittered TTL so a burst of dashboards does not expire in lockstep. Cache
// errors degrade to a direct store read.
type CachedFeedbackStore struct {
	store  feedbackQuerier
	cache  rowCacher
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group
}

func NewCachedFeedbackStore(store feedbackQuerier, rowCache rowCacher, ttl time.Duration, logger *zap.Logger) *CachedFeedbackStore {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFeedbackStore{
		store:  store,
		cache:  rowCache,
		ttl:    ttl,
		logger: logger.Named("feedback-row-cache"),
	}
}

func (s *CachedFeedbackStore) QueryFeedback(ctx context.Context, projectID, userID string, start, end time.Time, categoryIDs []string) ([]models.FeedbackRecord, error) {
	key := rowCacheKey(projectID, userID, start, end, categoryIDs)

	var cached []models.FeedbackRecord
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		s.logger.Debug("row cache hit", zap.String("key", key))
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
	default:
		s.logger.Warn("row cache get error, treating as miss", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		records, err := s.store.QueryFeedback(ctx, projectID, userID, start, end, categoryIDs)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, records, jitteredTTL(s.ttl)); err != nil {
			s.logger.Warn("row cache set failed", zap.String("key", key), zap.Error(err))
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records, ok := v.([]models.FeedbackRecord)
	if !ok {
		return nil, fmt.Errorf("row cache type mismatch for key %q", key)
	}
	return records, nil
}

func rowCacheKey(projectID, userID string, start, end time.Time, categoryIDs []string) string {
	return strings.Join([]string{
		"store:feedback",
		projectID,
		userID,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		strings.Join(categoryIDs, ","),
	}, ":")
}

// jitteredTTL spreads expirations by up to ±10% to avoid mass refetches.
func jitteredTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := 0.9 + 0.2*rand.Float64()
	return time.Duration(float64(ttl) * jitter)
}
