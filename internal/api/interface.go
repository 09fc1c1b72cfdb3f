package api

import (
	"context"

	"github.com/feedlens/analytics-server/internal/service"
)

// AnalyticsProvider is the slice of the analytics service the handlers use.
type AnalyticsProvider interface {
	Summary(ctx context.Context, q service.Query) service.AnalyticsResult
	Comparison(ctx context.Context, q service.Query) (service.AnalyticsResult, service.ComparisonResult)
}
