package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/feedlens/analytics-server/internal/api"
	"github.com/feedlens/analytics-server/internal/api/mocks"
	"github.com/feedlens/analytics-server/internal/service"
)

func setupRouter(t *testing.T, mock *mocks.MockAnalyticsProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.NewHandlers(mock, zaptest.NewLogger(t)).Register(router)
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestHealthz(t *testing.T) {
	router := setupRouter(t, &mocks.MockAnalyticsProvider{})

	resp := doGet(router, "/healthz")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestGetAnalytics(t *testing.T) {
	t.Run("passes filters through to the service", func(t *testing.T) {
		mock := &mocks.MockAnalyticsProvider{}
		router := setupRouter(t, mock)

		resp := doGet(router, "/v1/analytics?projectId=p1&userId=u1&timeframe=7d&categoryIds=c1,c2&qualityThreshold=0.5&bypassCache=true")

		assert.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, 1, mock.SummaryCalls)

		q := mock.LastQuery
		assert.Equal(t, "p1", q.ProjectID)
		assert.Equal(t, "u1", q.UserID)
		assert.Equal(t, service.NamedRange("7d"), q.Range)
		assert.Equal(t, []string{"c1", "c2"}, q.CategoryIDs)
		require.NotNil(t, q.QualityThreshold)
		assert.Equal(t, 0.5, *q.QualityThreshold)
		assert.True(t, q.BypassCache)
	})

	t.Run("explicit range wins over timeframe", func(t *testing.T) {
		mock := &mocks.MockAnalyticsProvider{}
		router := setupRouter(t, mock)

		resp := doGet(router, "/v1/analytics?timeframe=7d&start=2025-06-01T00:00:00Z&end=2025-06-15T00:00:00Z")

		assert.Equal(t, http.StatusOK, resp.Code)
		want := service.ExplicitRange(
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		)
		assert.Equal(t, want, mock.LastQuery.Range)
	})

	t.Run("returns the service result as JSON", func(t *testing.T) {
		mock := &mocks.MockAnalyticsProvider{
			SummaryFunc: func(ctx context.Context, q service.Query) service.AnalyticsResult {
				return service.AnalyticsResult{TotalFeedback: 42}
			},
		}
		router := setupRouter(t, mock)

		resp := doGet(router, "/v1/analytics")

		assert.Equal(t, http.StatusOK, resp.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.EqualValues(t, 42, body["totalFeedback"])
	})

	t.Run("rejects inverted ranges", func(t *testing.T) {
		mock := &mocks.MockAnalyticsProvider{}
		router := setupRouter(t, mock)

		resp := doGet(router, "/v1/analytics?start=2025-06-15T00:00:00Z&end=2025-06-01T00:00:00Z")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, 0, mock.SummaryCalls)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		router := setupRouter(t, &mocks.MockAnalyticsProvider{})

		resp := doGet(router, "/v1/analytics?start=yesterday&end=2025-06-15T00:00:00Z")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("rejects start without end", func(t *testing.T) {
		router := setupRouter(t, &mocks.MockAnalyticsProvider{})

		resp := doGet(router, "/v1/analytics?start=2025-06-01T00:00:00Z")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("rejects non-numeric quality threshold", func(t *testing.T) {
		router := setupRouter(t, &mocks.MockAnalyticsProvider{})

		resp := doGet(router, "/v1/analytics?qualityThreshold=high")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestGetComparison(t *testing.T) {
	mock := &mocks.MockAnalyticsProvider{
		ComparisonFunc: func(ctx context.Context, q service.Query) (service.AnalyticsResult, service.ComparisonResult) {
			return service.AnalyticsResult{TotalFeedback: 10},
				service.ComparisonResult{
					Previous: service.AnalyticsResult{TotalFeedback: 5},
					Changes:  service.Changes{FeedbackVolume: 1},
				}
		},
	}
	router := setupRouter(t, mock)

	resp := doGet(router, "/v1/analytics/comparison?timeframe=30d")

	assert.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 1, mock.ComparisonCalls)

	var body struct {
		Current  service.AnalyticsResult `json:"current"`
		Previous service.AnalyticsResult `json:"previous"`
		Changes  service.Changes         `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Current.TotalFeedback)
	assert.Equal(t, 5, body.Previous.TotalFeedback)
	assert.Equal(t, 1.0, body.Changes.FeedbackVolume)
}

func TestExportCSV(t *testing.T) {
	mock := &mocks.MockAnalyticsProvider{
		SummaryFunc: func(ctx context.Context, q service.Query) service.AnalyticsResult {
			return service.AnalyticsResult{TotalFeedback: 3}
		},
	}
	router := setupRouter(t, mock)

	resp := doGet(router, "/v1/analytics/export.csv")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "feedback-analytics.csv")
	assert.True(t, strings.HasPrefix(resp.Body.String(), "data:text/csv;charset=utf-8,"))
	assert.Contains(t, resp.Body.String(), "Total Feedback,3")
}

func TestExportPDF(t *testing.T) {
	router := setupRouter(t, &mocks.MockAnalyticsProvider{})

	resp := doGet(router, "/v1/analytics/export.pdf")

	assert.Equal(t, http.StatusNotImplemented, resp.Code)
	assert.JSONEq(t, `{"error":"pdf export is not available"}`, resp.Body.String())
}

func TestGetAnalyticsRejectsBadBypassFlag(t *testing.T) {
	router := setupRouter(t, &mocks.MockAnalyticsProvider{})

	resp := doGet(router, "/v1/analytics?bypassCache=sometimes")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
