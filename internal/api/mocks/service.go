package mocks

import (
	"context"

	"github.com/feedlens/analytics-server/internal/service"
)

// MockAnalyticsProvider implements api.AnalyticsProvider with pluggable
// function fields.
type MockAnalyticsProvider struct {
	SummaryFunc    func(ctx context.Context, q service.Query) service.AnalyticsResult
	ComparisonFunc func(ctx context.Context, q service.Query) (service.AnalyticsResult, service.ComparisonResult)

	SummaryCalls    int
	ComparisonCalls int
	LastQuery       service.Query
}

func (m *MockAnalyticsProvider) Summary(ctx context.Context, q service.Query) service.AnalyticsResult {
	m.SummaryCalls++
	m.LastQuery = q
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, q)
	}
	return service.AnalyticsResult{}
}

func (m *MockAnalyticsProvider) Comparison(ctx context.Context, q service.Query) (service.AnalyticsResult, service.ComparisonResult) {
	m.ComparisonCalls++
	m.LastQuery = q
	if m.ComparisonFunc != nil {
		return m.ComparisonFunc(ctx, q)
	}
	return service.AnalyticsResult{}, service.ComparisonResult{}
}
