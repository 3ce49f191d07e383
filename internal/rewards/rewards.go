package rewards

import (
	"context"
	"time"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
)

// Event describes one successful review worth rewarding.
type Event struct {
	LearnerID       int64
	ScheduleID      int64
	Score           int
	NewIntervalDays int
	ReviewedAt      time.Time
}

// Notifier delivers reward events to the gamification service. The platform's
// currency and leaderboards live elsewhere; this side only emits.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier is the default Notifier. It records the event and does nothing
// else, which is the right behavior when no gamification backend is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event Event) error {
	logger.FromContext(ctx).WithFields(map[string]any{
		"learner_id":  event.LearnerID,
		"schedule_id": event.ScheduleID,
		"score":       event.Score,
	}).Info("reward event emitted")
	return nil
}

// Job adapts a reward event to the worker pool.
type Job struct {
	Notifier Notifier
	Event    Event
}

func (j *Job) Name() string { return "reward_notify" }

func (j *Job) Run(ctx context.Context) error {
	return j.Notifier.Notify(ctx, j.Event)
}
