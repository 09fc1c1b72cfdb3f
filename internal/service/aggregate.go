package service

import (
	"sort"

	"github.com/feedlens/analytics-server/internal/repository/models"
)

const (
	// legacyCategoryPrefix keeps synthetic ids derived from the legacy
	// single-string category field from colliding with real category ids.
	legacyCategoryPrefix = "legacy:"

	topCategoryLimit = 5
	topProviderLimit = 10
)

// Aggregator turns a window of feedback records into an AnalyticsResult.
// Records are expected to be pre-filtered to the target window; a record
// missing optional fields is excluded from the metrics that need them, never
// from the feedback total.
type Aggregator struct {
	volumeBucket BucketFunc
}

// NewAggregator builds an aggregator. A nil bucket function defaults to
// daily UTC buckets.
func NewAggregator(volumeBucket BucketFunc) *Aggregator {
	if volumeBucket == nil {
		volumeBucket = DailyBucket
	}
	return &Aggregator{volumeBucket: volumeBucket}
}

type categoryAccumulator struct {
	name       string
	count      int
	qualitySum float64
	scorable   int
}

type providerAccumulator struct {
	userName   string
	avatarURL  *string
	count      int
	qualitySum float64
}

type trendAccumulator struct {
	sum   float64
	count int
}

// Aggregate computes every summary metric in a single pass over the records.
func (a *Aggregator) Aggregate(records []models.FeedbackRecord) AnalyticsResult {
	result := emptyResult()
	result.TotalFeedback = len(records)
	if len(records) == 0 {
		return result
	}

	var (
		qualitySum    float64
		scorableCount int

		categories = make(map[string]*categoryAccumulator)
		volume     = make(map[string]int)
		trend      = make(map[string]*trendAccumulator)
		providers  = make(map[string]*providerAccumulator)

		responseCount int
		responseSum   float64
	)

	for _, rec := range records {
		score, scorable := ScoreRecord(rec)
		if scorable {
			qualitySum += score.Composite
			scorableCount++

			switch score.Bucket {
			case BucketExcellent:
				result.QualityDistribution.Excellent++
			case BucketGood:
				result.QualityDistribution.Good++
			case BucketAverage:
				result.QualityDistribution.Average++
			case BucketBasic:
				result.QualityDistribution.Basic++
			}
		}

		// Sentiment counting is independent of quality scorability.
		if rec.Sentiment != nil {
			switch SentimentBucket(*rec.Sentiment) {
			case SentimentPositive:
				result.SentimentAnalysis.Positive++
			case SentimentNegative:
				result.SentimentAnalysis.Negative++
			default:
				result.SentimentAnalysis.Neutral++
			}
		}

		for _, mapping := range recordCategories(rec) {
			acc, ok := categories[mapping.CategoryID]
			if !ok {
				acc = &categoryAccumulator{name: mapping.CategoryName}
				categories[mapping.CategoryID] = acc
			}
			acc.count++
			if scorable {
				acc.qualitySum += score.Composite
				acc.scorable++
			}
		}

		day := a.volumeBucket(rec.CreatedAt)
		volume[day]++
		if scorable {
			tr, ok := trend[day]
			if !ok {
				tr = &trendAccumulator{}
				trend[day] = tr
			}
			tr.sum += score.Composite
			tr.count++
		}

		if scorable {
			p, ok := providers[rec.UserID]
			if !ok {
				p = &providerAccumulator{userName: rec.UserName, avatarURL: rec.AvatarURL}
				providers[rec.UserID] = p
			}
			p.count++
			p.qualitySum += score.Composite
		}

		if rec.ResponseTimeHours != nil {
			responseCount++
			responseSum += *rec.ResponseTimeHours
		}
	}

	if scorableCount > 0 {
		result.AverageQuality = qualitySum / float64(scorableCount)
	}

	result.CategoryDistribution = sortedCategories(categories)
	if len(result.CategoryDistribution) > topCategoryLimit {
		result.TopCategories = result.CategoryDistribution[:topCategoryLimit]
	} else {
		result.TopCategories = result.CategoryDistribution
	}

	result.FeedbackVolume = sortedVolume(volume)
	result.QualityTrend = sortedTrend(trend)
	result.TopProviders = sortedProviders(providers)

	result.ResponseRate = float64(responseCount) / float64(result.TotalFeedback)
	if responseCount > 0 {
		result.AverageResponseTime = responseSum / float64(responseCount)
	}

	return result
}

// recordCategories returns a record's category mappings, deduplicated by id
// so a record never contributes twice to the same category. Records without
// mappings fall back to a synthetic entry keyed by the legacy category label.
func recordCategories(rec models.FeedbackRecord) []models.CategoryMapping {
	if len(rec.Categories) == 0 {
		if rec.Category == "" {
			return nil
		}
		return []models.CategoryMapping{{
			CategoryID:   legacyCategoryPrefix + rec.Category,
			CategoryName: rec.Category,
		}}
	}

	seen := make(map[string]struct{}, len(rec.Categories))
	out := rec.Categories[:0:0]
	for _, m := range rec.Categories {
		if _, dup := seen[m.CategoryID]; dup {
			continue
		}
		seen[m.CategoryID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func sortedCategories(categories map[string]*categoryAccumulator) []CategoryCount {
	out := make([]CategoryCount, 0, len(categories))
	for id, acc := range categories {
		cc := CategoryCount{
			CategoryID:   id,
			CategoryName: acc.name,
			Count:        acc.count,
		}
		if acc.scorable > 0 {
			cc.QualityScore = acc.qualitySum / float64(acc.scorable)
		}
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

func sortedVolume(volume map[string]int) []VolumePoint {
	out := make([]VolumePoint, 0, len(volume))
	for date, count := range volume {
		out = append(out, VolumePoint{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedTrend(trend map[string]*trendAccumulator) []TrendPoint {
	out := make([]TrendPoint, 0, len(trend))
	for date, acc := range trend {
		out = append(out, TrendPoint{Date: date, AverageQuality: acc.sum / float64(acc.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedProviders(providers map[string]*providerAccumulator) []ProviderStats {
	out := make([]ProviderStats, 0, len(providers))
	for userID, acc := range providers {
		out = append(out, ProviderStats{
			UserID:         userID,
			UserName:       acc.userName,
			AvatarURL:      acc.avatarURL,
			FeedbackCount:  acc.count,
			AverageQuality: acc.qualitySum / float64(acc.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FeedbackCount != out[j].FeedbackCount {
			return out[i].FeedbackCount > out[j].FeedbackCount
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > topProviderLimit {
		out = out[:topProviderLimit]
	}
	return out
}
