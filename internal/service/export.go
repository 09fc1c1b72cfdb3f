package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPDFUnavailable is returned by ExportPDF; PDF export has no
// implementation and callers surface the unavailability to the user.
var ErrPDFUnavailable = errors.New("pdf export is not available")

// ExportCSV renders a summary in the fixed Category,Metric,Value line
// format consumed by the dashboard's download link. Line order is part of
// the contract.
func ExportCSV(result AnalyticsResult) string {
	var b strings.Builder

	b.WriteString("data:text/csv;charset=utf-8,Category,Metric,Value\n")
	fmt.Fprintf(&b, "Overview,Total Feedback,%d\n", result.TotalFeedback)
	fmt.Fprintf(&b, "Overview,Average Quality,%.1f%%\n", result.AverageQuality*100)
	fmt.Fprintf(&b, "Overview,Response Rate,%.1f%%\n", result.ResponseRate*100)
	fmt.Fprintf(&b, "Overview,Average Response Time,%.1f hours\n", result.AverageResponseTime)

	fmt.Fprintf(&b, "Quality,Excellent,%d\n", result.QualityDistribution.Excellent)
	fmt.Fprintf(&b, "Quality,Good,%d\n", result.QualityDistribution.Good)
	fmt.Fprintf(&b, "Quality,Average,%d\n", result.QualityDistribution.Average)
	fmt.Fprintf(&b, "Quality,Basic,%d\n", result.QualityDistribution.Basic)

	fmt.Fprintf(&b, "Sentiment,Positive,%d\n", result.SentimentAnalysis.Positive)
	fmt.Fprintf(&b, "Sentiment,Neutral,%d\n", result.SentimentAnalysis.Neutral)
	fmt.Fprintf(&b, "Sentiment,Negative,%d\n", result.SentimentAnalysis.Negative)

	for _, c := range result.CategoryDistribution {
		fmt.Fprintf(&b, "Category,%s,%d\n", c.CategoryName, c.Count)
	}
	for _, v := range result.FeedbackVolume {
		fmt.Fprintf(&b, "Volume,%s,%d\n", v.Date, v.Count)
	}

	return b.String()
}

// ExportPDF is a stub kept for interface parity with the dashboard's export
// menu; it always reports unavailability.
func ExportPDF(AnalyticsResult) ([]byte, error) {
	return nil, ErrPDFUnavailable
}
