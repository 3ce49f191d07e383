package models

// DueReviews partitions a learner's schedules by due status.
// NotDue is populated only when the caller asked for it.
type DueReviews struct {
	DueNow  []ScheduleWithStatus `json:"due_now"`
	DueSoon []ScheduleWithStatus `json:"due_soon"`
	NotDue  []ScheduleWithStatus `json:"not_due,omitempty"`
	Total   int                  `json:"total"`
}

// ReviewStats aggregates a learner's scheduling state and recent activity.
// The weekly numbers come from the session log, not from schedule state.
type ReviewStats struct {
	TotalSchedules int     `json:"total_schedules"`
	DueCount       int     `json:"due_count"`
	WeeklyReviews  int     `json:"weekly_reviews"`
	WeeklyAvgScore float64 `json:"weekly_avg_score"`
}
