package service

// PercentageChange returns the fractional delta between two values: 0.5
// means +50%. Growth from a zero previous value is reported as +100% (1)
// rather than an unbounded ratio; zero to zero is 0.
func PercentageChange(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 1
		}
		return 0
	}
	return (current - previous) / previous
}

// PreviousWindow derives the comparison window for a range: same duration,
// contiguous and non-overlapping, ending one day before the current start.
func PreviousWindow(r DateRange) DateRange {
	duration := r.End.Sub(r.Start)
	previousEnd := r.Start.AddDate(0, 0, -1)
	return DateRange{
		Start: previousEnd.Add(-duration),
		End:   previousEnd,
	}
}

// changesBetween computes the per-metric deltas of current against previous.
func changesBetween(previous, current AnalyticsResult) Changes {
	return Changes{
		FeedbackVolume: PercentageChange(float64(previous.TotalFeedback), float64(current.TotalFeedback)),
		QualityScore:   PercentageChange(previous.AverageQuality, current.AverageQuality),
		ResponseRate:   PercentageChange(previous.ResponseRate, current.ResponseRate),
		ResponseTime:   PercentageChange(previous.AverageResponseTime, current.AverageResponseTime),
	}
}
