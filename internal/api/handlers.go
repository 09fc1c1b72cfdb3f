package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feedlens/analytics-server/internal/service"
)

const defaultRequestTimeout = 10 * time.Second

// Handlers serves the analytics HTTP API.
type Handlers struct {
	analytics AnalyticsProvider
	logger    *zap.Logger
	timeout   time.Duration
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(analytics AnalyticsProvider, logger *zap.Logger) *Handlers {
	if analytics == nil {
		panic("nil AnalyticsProvider provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		analytics: analytics,
		logger:    logger.Named("api-handler"),
		timeout:   defaultRequestTimeout,
	}
}

// Register mounts the API routes on the engine.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	{
		v1.GET("/analytics", h.GetAnalytics)
		v1.GET("/analytics/comparison", h.GetComparison)
		v1.GET("/analytics/export.csv", h.ExportCSV)
		v1.GET("/analytics/export.pdf", h.ExportPDF)
	}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) GetAnalytics(c *gin.Context) {
	query, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	c.JSON(http.StatusOK, h.analytics.Summary(ctx, query))
}

func (h *Handlers) GetComparison(c *gin.Context) {
	query, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	current, comparison := h.analytics.Comparison(ctx, query)
	c.JSON(http.StatusOK, gin.H{
		"current":  current,
		"previous": comparison.Previous,
		"changes":  comparison.Changes,
	})
}

func (h *Handlers) ExportCSV(c *gin.Context) {
	query, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result := h.analytics.Summary(ctx, query)
	csv := service.ExportCSV(result)

	c.Header("Content-Disposition", `attachment; filename="feedback-analytics.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

func (h *Handlers) ExportPDF(c *gin.Context) {
	if _, err := service.ExportPDF(service.AnalyticsResult{}); err != nil {
		if errors.Is(err, service.ErrPDFUnavailable) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "pdf export is not available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pdf export failed"})
		return
	}
	c.Status(http.StatusOK)
}

// parseQuery maps the query string onto a service query. Unknown timeframe
// names are passed through; the service falls back to its default window.
func parseQuery(c *gin.Context) (service.Query, error) {
	q := service.Query{
		ProjectID: c.Query("projectId"),
		UserID:    c.Query("userId"),
		Range:     service.NamedRange(c.Query("timeframe")),
	}

	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" || endRaw != "" {
		if startRaw == "" || endRaw == "" {
			return service.Query{}, errors.New("start and end must be provided together")
		}
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return service.Query{}, errors.New("start must be an RFC3339 timestamp")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return service.Query{}, errors.New("end must be an RFC3339 timestamp")
		}
		if end.Before(start) {
			return service.Query{}, errors.New("end must not be before start")
		}
		q.Range = service.ExplicitRange(start, end)
	}

	if raw := c.Query("categoryIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.CategoryIDs = append(q.CategoryIDs, id)
			}
		}
	}

	if raw := c.Query("qualityThreshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.Query{}, errors.New("qualityThreshold must be a number")
		}
		q.QualityThreshold = &threshold
	}

	if raw := c.Query("bypassCache"); raw != "" {
		bypass, err := strconv.ParseBool(raw)
		if err != nil {
			return service.Query{}, errors.New("bypassCache must be a boolean")
		}
		q.BypassCache = bypass
	}

	return q, nil
}
