package service

import "github.com/feedlens/analytics-server/internal/repository/models"

// QualityBucket classifies a composite quality score.
type QualityBucket string

const (
	BucketExcellent QualityBucket = "excellent"
	BucketGood      QualityBucket = "good"
	BucketAverage   QualityBucket = "average"
	BucketBasic     QualityBucket = "basic"
)

// SentimentLabel classifies a -1..1 sentiment value.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// QualityScore is the scored view of a single feedback record.
type QualityScore struct {
	Composite float64
	Bucket    QualityBucket
}

// ScoreRecord computes the composite quality score for a record: the mean of
// specificity, actionability and novelty. The second return is false when any
// sub-score is missing; such records are excluded from quality metrics but
// still count toward the feedback total.
func ScoreRecord(rec models.FeedbackRecord) (QualityScore, bool) {
	if rec.SpecificityScore == nil || rec.ActionabilityScore == nil || rec.NoveltyScore == nil {
		return QualityScore{}, false
	}
	composite := (*rec.SpecificityScore + *rec.ActionabilityScore + *rec.NoveltyScore) / 3
	return QualityScore{Composite: composite, Bucket: BucketForComposite(composite)}, true
}

// BucketForComposite maps a composite score to its quality bucket using
// inclusive lower bounds.
func BucketForComposite(composite float64) QualityBucket {
	switch {
	case composite >= 0.8:
		return BucketExcellent
	case composite >= 0.6:
		return BucketGood
	case composite >= 0.4:
		return BucketAverage
	default:
		return BucketBasic
	}
}

// SentimentBucket classifies a sentiment value: positive above 0.3, negative
// below -0.3, neutral between.
func SentimentBucket(sentiment float64) SentimentLabel {
	switch {
	case sentiment > 0.3:
		return SentimentPositive
	case sentiment < -0.3:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
