package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feedlens/analytics-server/internal/repository/models"
	"github.com/feedlens/analytics-server/pkg/requestcache"
)

var ErrStoreFailure = errors.New("feedback store failure")

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultTimeframe = "30d"
)

// AnalyticsService is the facade in front of the analytics pipeline. It
// normalizes the caller's window, runs the store fetch through the request
// cache and retry helpers, and maps unrecoverable failures to zero-valued
// results so the dashboard always renders.
type AnalyticsService struct {
	store      FeedbackStore
	cache      *requestcache.Cache
	logger     *zap.Logger
	aggregator *Aggregator
	cacheTTL   time.Duration
	retry      requestcache.RetryOptions
	now        func() time.Time
}

type AnalyticsOption func(*AnalyticsService)

func WithCacheTTL(ttl time.Duration) AnalyticsOption {
	return func(s *AnalyticsService) { s.cacheTTL = ttl }
}

func WithRetryOptions(opts requestcache.RetryOptions) AnalyticsOption {
	return func(s *AnalyticsService) { s.retry = opts }
}

// WithAnalyticsClock overrides the time source used to resolve named
// timeframes, for tests.
func WithAnalyticsClock(clock func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) { s.now = clock }
}

// WithVolumeBucket swaps the time-bucketing strategy for volume and trend
// series (default: daily UTC).
func WithVolumeBucket(bucket BucketFunc) AnalyticsOption {
	return func(s *AnalyticsService) { s.aggregator = NewAggregator(bucket) }
}

// NewAnalyticsService creates the facade. Store and cache must not be nil.
func NewAnalyticsService(store FeedbackStore, cache *requestcache.Cache, logger *zap.Logger, opts ...AnalyticsOption) *AnalyticsService {
	if store == nil {
		panic("store must not be nil")
	}
	if cache == nil {
		panic("cache must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &AnalyticsService{
		store:      store,
		cache:      cache,
		logger:     logger.Named("analytics"),
		aggregator: NewAggregator(nil),
		cacheTTL:   defaultCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary computes (or serves from cache) the analytics summary for the
// query window. Failures are logged and reported as zero metrics.
func (s *AnalyticsService) Summary(ctx context.Context, q Query) AnalyticsResult {
	f := s.normalize(q)

	result, err := s.summaryForFilter(ctx, f, q.BypassCache)
	if err != nil {
		s.logger.Error("summary failed, returning zero metrics",
			zap.String("projectId", f.ProjectID),
			zap.Time("start", f.Range.Start),
			zap.Time("end", f.Range.End),
			zap.Error(err))
		return emptyResult()
	}
	return result
}

// Comparison computes the current window's summary plus the deltas against
// the immediately preceding window of identical duration. A failure on the
// previous window yields zeroed previous metrics and zero deltas.
func (s *AnalyticsService) Comparison(ctx context.Context, q Query) (AnalyticsResult, ComparisonResult) {
	f := s.normalize(q)

	current, err := s.summaryForFilter(ctx, f, q.BypassCache)
	if err != nil {
		s.logger.Error("comparison failed on current window", zap.Error(err))
		return emptyResult(), ComparisonResult{Previous: emptyResult()}
	}

	prevFilter := f
	prevFilter.Range = PreviousWindow(f.Range)
	previous, err := s.summaryForFilter(ctx, prevFilter, q.BypassCache)
	if err != nil {
		s.logger.Warn("comparison failed on previous window, reporting zero deltas", zap.Error(err))
		return current, ComparisonResult{Previous: emptyResult()}
	}

	return current, ComparisonResult{
		Previous: previous,
		Changes:  changesBetween(previous, current),
	}
}

func (s *AnalyticsService) summaryForFilter(ctx context.Context, f Filter, bypass bool) (AnalyticsResult, error) {
	key := summaryCacheKey(f)
	opts := requestcache.FetchOptions{
		TTL:                  s.cacheTTL,
		BypassCache:          bypass,
		StaleWhileRevalidate: true,
	}

	return requestcache.WithCache(ctx, s.cache, key, opts, func(fetchCtx context.Context) (AnalyticsResult, error) {
		return requestcache.Retry(fetchCtx, s.retry, func(retryCtx context.Context) (AnalyticsResult, error) {
			records, err := s.store.QueryFeedback(retryCtx, f.ProjectID, f.UserID, f.Range.Start, f.Range.End, f.CategoryIDs)
			if err != nil {
				return AnalyticsResult{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
			}
			records = postFilter(records, f)
			return s.aggregator.Aggregate(records), nil
		})
	})
}

// normalize resolves the tagged range variant and sorts category ids so
// logically identical queries share one cache key.
func (s *AnalyticsService) normalize(q Query) Filter {
	f := Filter{
		ProjectID:        q.ProjectID,
		UserID:           q.UserID,
		Range:            s.resolveRange(q.Range),
		QualityThreshold: q.QualityThreshold,
	}
	if len(q.CategoryIDs) > 0 {
		f.CategoryIDs = append([]string(nil), q.CategoryIDs...)
		sort.Strings(f.CategoryIDs)
	}
	return f
}

func (s *AnalyticsService) resolveRange(spec RangeSpec) DateRange {
	if spec.kind == RangeExplicit && !spec.rng.Start.IsZero() && !spec.rng.End.IsZero() {
		return DateRange{Start: spec.rng.Start.UTC(), End: spec.rng.End.UTC()}
	}

	timeframe := spec.timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	var span time.Duration
	switch timeframe {
	case "24h":
		span = 24 * time.Hour
	case "7d":
		span = 7 * 24 * time.Hour
	case "30d":
		span = 30 * 24 * time.Hour
	case "90d":
		span = 90 * 24 * time.Hour
	default:
		s.logger.Warn("unknown timeframe, using default", zap.String("timeframe", timeframe))
		span = 30 * 24 * time.Hour
	}

	end := s.now().UTC()
	return DateRange{Start: end.Add(-span), End: end}
}

func summaryCacheKey(f Filter) string {
	params := map[string]any{
		"start": f.Range.Start.UTC().Format(time.RFC3339),
		"end":   f.Range.End.UTC().Format(time.RFC3339),
	}
	if f.ProjectID != "" {
		params["projectId"] = f.ProjectID
	}
	if f.UserID != "" {
		params["userId"] = f.UserID
	}
	if len(f.CategoryIDs) > 0 {
		params["categoryIds"] = strings.Join(f.CategoryIDs, ",")
	}
	if f.QualityThreshold != nil {
		params["qualityThreshold"] = *f.QualityThreshold
	}
	return requestcache.Key("analytics:summary", params)
}

// postFilter applies the engine-side filters: category membership (a record
// stays if any of its mappings matches) and the composite quality threshold.
func postFilter(records []models.FeedbackRecord, f Filter) []models.FeedbackRecord {
	if len(f.CategoryIDs) == 0 && f.QualityThreshold == nil {
		return records
	}

	categorySet := make(map[string]struct{}, len(f.CategoryIDs))
	for _, id := range f.CategoryIDs {
		categorySet[id] = struct{}{}
	}

	out := records[:0:0]
	for _, rec := range records {
		if len(categorySet) > 0 && !matchesAnyCategory(rec, categorySet) {
			continue
		}
		if f.QualityThreshold != nil {
			score, scorable := ScoreRecord(rec)
			if !scorable || score.Composite < *f.QualityThreshold {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func matchesAnyCategory(rec models.FeedbackRecord, categorySet map[string]struct{}) bool {
	for _, m := range recordCategories(rec) {
		if _, ok := categorySet[m.CategoryID]; ok {
			return true
		}
	}
	return false
}
