package service

import "time"

// DateRange is a concrete, inclusive analysis window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RangeKind tags how a caller expressed the analysis window.
type RangeKind int

const (
	// RangeNamed is a named timeframe such as "7d", resolved against now.
	RangeNamed RangeKind = iota
	// RangeExplicit is a caller-supplied start/end pair.
	RangeExplicit
)

// RangeSpec is the tagged window variant: either a named timeframe or an
// explicit range. It is resolved exactly once at the facade boundary; the
// aggregator only ever sees a concrete DateRange.
type RangeSpec struct {
	kind      RangeKind
	timeframe string
	rng       DateRange
}

// NamedRange builds a RangeSpec from a timeframe name (24h, 7d, 30d, 90d).
func NamedRange(timeframe string) RangeSpec {
	return RangeSpec{kind: RangeNamed, timeframe: timeframe}
}

// ExplicitRange builds a RangeSpec from a concrete window.
func ExplicitRange(start, end time.Time) RangeSpec {
	return RangeSpec{kind: RangeExplicit, rng: DateRange{Start: start, End: end}}
}

// Query is a caller's analytics request before normalization.
type Query struct {
	ProjectID        string
	UserID           string
	Range            RangeSpec
	CategoryIDs      []string
	QualityThreshold *float64
	BypassCache      bool
}

// Filter is a normalized query with a resolved window, as consumed by the
// aggregation pipeline.
type Filter struct {
	ProjectID        string
	UserID           string
	Range            DateRange
	CategoryIDs      []string
	QualityThreshold *float64
}

type QualityDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Average   int `json:"average"`
	Basic     int `json:"basic"`
}

type SentimentAnalysis struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type CategoryCount struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Count        int     `json:"count"`
	QualityScore float64 `json:"qualityScore"`
}

type VolumePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TrendPoint struct {
	Date           string  `json:"date"`
	AverageQuality float64 `json:"averageQuality"`
}

type ProviderStats struct {
	UserID         string  `json:"userId"`
	UserName       string  `json:"userName"`
	AvatarURL      *string `json:"avatarUrl,omitempty"`
	FeedbackCount  int     `json:"feedbackCount"`
	AverageQuality float64 `json:"averageQuality"`
}

// AnalyticsResult is the stable summary shape consumed by the dashboard UI
// and the export paths. Immutable once returned.
type AnalyticsResult struct {
	TotalFeedback        int                 `json:"totalFeedback"`
	AverageQuality       float64             `json:"averageQuality"`
	QualityDistribution  QualityDistribution `json:"qualityDistribution"`
	SentimentAnalysis    SentimentAnalysis   `json:"sentimentAnalysis"`
	CategoryDistribution []CategoryCount     `json:"categoryDistribution"`
	TopCategories        []CategoryCount     `json:"topCategories"`
	FeedbackVolume       []VolumePoint       `json:"feedbackVolume"`
	QualityTrend         []TrendPoint        `json:"qualityTrend"`
	TopProviders         []ProviderStats     `json:"topProviders"`
	ResponseRate         float64             `json:"responseRate"`
	AverageResponseTime  float64             `json:"averageResponseTime"`
}

// Changes holds fractional percentage deltas against the previous window
// (0.5 means +50%, not 50 percentage points).
type Changes struct {
	FeedbackVolume float64 `json:"feedbackVolume"`
	QualityScore   float64 `json:"qualityScore"`
	ResponseRate   float64 `json:"responseRate"`
	ResponseTime   float64 `json:"responseTime"`
}

// ComparisonResult pairs the previous window's summary with the deltas of
// the current window against it.
type ComparisonResult struct {
	Previous AnalyticsResult `json:"previous"`
	Changes  Changes         `json:"changes"`
}

// emptyResult returns a zero summary with non-nil slices so the JSON shape
// stays stable for the UI even on failure.
func emptyResult() AnalyticsResult {
	return AnalyticsResult{
		CategoryDistribution: []CategoryCount{},
		TopCategories:        []CategoryCount{},
		FeedbackVolume:       []VolumePoint{},
		QualityTrend:         []TrendPoint{},
		TopProviders:         []ProviderStats{},
	}
}
