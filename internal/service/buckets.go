package service

import (
	"fmt"
	"time"
)

// BucketFunc maps a timestamp to a bucket key. Keys must sort
// lexicographically in chronological order.
type BucketFunc func(t time.Time) string

// DailyBucket keys by the UTC date component, YYYY-MM-DD.
func DailyBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekOfMonthBucket approximates the week number within the month as
// ceil((dayOfMonth + weekdayOfFirstOfMonth) / 7). This is NOT ISO-8601 week
// numbering; the convention is kept from the original product, and callers
// that need ISO weeks should plug their own BucketFunc.
func WeekOfMonthBucket(t time.Time) string {
	u := t.UTC()
	first := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	week := (u.Day() + int(first.Weekday()) + 6) / 7
	return fmt.Sprintf("%s-W%d", u.Format("2006-01"), week)
}

// MonthlyBucket keys by the UTC year and month, YYYY-MM.
func MonthlyBucket(t time.Time) string {
	return t.UTC().Format("2006-01")
}
