package models

import "time"

// CategoryMapping is a resolved feedback-to-category relation.
type CategoryMapping struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// FeedbackRecord is a raw feedback row as read from the store. The three
// quality sub-scores are only present once analysis has run; sentiment and
// response time are optional. Category holds the legacy single label, used
// only when Categories is empty.
type FeedbackRecord struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	Category   string            `json:"category,omitempty"`
	Categories []CategoryMapping `json:"categoryMapping,omitempty"`

	Severity           int      `json:"severity"`
	Sentiment          *float64 `json:"sentiment,omitempty"`
	SpecificityScore   *float64 `json:"specificityScore,omitempty"`
	ActionabilityScore *float64 `json:"actionabilityScore,omitempty"`
	NoveltyScore       *float64 `json:"noveltyScore,omitempty"`
	ResponseTimeHours  *float64 `json:"responseTimeHours,omitempty"`
}
