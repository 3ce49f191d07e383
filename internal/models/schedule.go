package models

import "time"

// ContentType identifies which kind of learning item a schedule tracks.
type ContentType string

const (
	ContentTopic    ContentType = "topic"
	ContentConcept  ContentType = "concept"
	ContentQuestion ContentType = "question"
)

// Valid reports whether the content type is one of the known kinds.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTopic, ContentConcept, ContentQuestion:
		return true
	}
	return false
}

// ContentRef points at exactly one learning item.
type ContentRef struct {
	Type ContentType `json:"type"`
	ID   int64       `json:"id"`
}

// DueStatus buckets a schedule relative to the current time.
// It is derived from NextReviewAt on every read, never stored.
type DueStatus string

const (
	DueStatusNotDue  DueStatus = "not_due"
	DueStatusDueSoon DueStatus = "due_soon"
	DueStatusDueNow  DueStatus = "due_now"
	DueStatusOverdue DueStatus = "overdue"
)

// ReviewSchedule is the per-(learner, item) spaced-repetition state.
type ReviewSchedule struct {
	ID                int64       `json:"id"`
	LearnerID         int64       `json:"learner_id"`
	ContentType       ContentType `json:"content_type"`
	ContentID         int64       `json:"content_id"`
	EaseFactor        float64     `json:"ease_factor"`
	IntervalDays      int         `json:"interval_days"`
	Repetitions       int         `json:"repetitions"`
	LastReviewedAt    *time.Time  `json:"last_reviewed_at,omitempty"`
	NextReviewAt      time.Time   `json:"next_review_at"`
	TotalReviews      int         `json:"total_reviews"`
	SuccessfulReviews int         `json:"successful_reviews"`
	AverageScore      int         `json:"average_score"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ScheduleWithStatus pairs a schedule with its due status computed at read time.
type ScheduleWithStatus struct {
	ReviewSchedule
	DueStatus DueStatus `json:"due_status"`
}
