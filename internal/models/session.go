package models

import "time"

// ReviewSession is one append-only audit record per review submission.
// It captures the scheduling decision (old/new interval and ease factor)
// alongside the learner's input. Immutable once written.
type ReviewSession struct {
	ID               int64     `json:"id"`
	ScheduleID       int64     `json:"schedule_id"`
	LearnerID        int64     `json:"learner_id"`
	Score            int       `json:"score"`
	Difficulty       string    `json:"difficulty"`
	Quality          int       `json:"quality"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	OldIntervalDays  int       `json:"old_interval_days"`
	NewIntervalDays  int       `json:"new_interval_days"`
	OldEaseFactor    float64   `json:"old_ease_factor"`
	NewEaseFactor    float64   `json:"new_ease_factor"`
	ReviewedAt       time.Time `json:"reviewed_at"`
}
