package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

// Sentinel errors returned by repository implementations.
var (
	// ErrNotFound means no row matched the (id, learner) pair.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means an insert hit the (learner, content) uniqueness constraint.
	ErrDuplicate = errors.New("already exists")
	// ErrConflict means a guarded update lost a race against a concurrent
	// writer and should be retried from a fresh read.
	ErrConflict = errors.New("write conflict")
)

// ScheduleRepository handles review schedule data access. Every operation is
// scoped to a learner; a schedule owned by a different learner behaves as if
// it does not exist.
type ScheduleRepository interface {
	Insert(ctx context.Context, schedule models.ReviewSchedule) (int64, error)
	Get(ctx context.Context, id, learnerID int64) (*models.ReviewSchedule, error)
	FindByContentRef(ctx context.Context, learnerID int64, ref models.ContentRef) (*models.ReviewSchedule, error)
	ListByLearner(ctx context.Context, learnerID int64) ([]models.ReviewSchedule, error)
	// ApplyReview atomically persists an updated schedule and appends the
	// session row recording the decision. The update is guarded by the
	// schedule's pre-review total_reviews count; a stale read surfaces as
	// ErrConflict and nothing is written.
	ApplyReview(ctx context.Context, updated models.ReviewSchedule, prevTotalReviews int, session models.ReviewSession) error
	Delete(ctx context.Context, id, learnerID int64) error
	CountByLearner(ctx context.Context, learnerID int64) (int, error)
	CountDue(ctx context.Context, learnerID int64, now time.Time) (int, error)
}

// SessionRepository handles the append-only review session log.
type SessionRepository interface {
	List(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error)
	// WindowStats returns the review count and mean score over sessions
	// recorded at or after since.
	WindowStats(ctx context.Context, learnerID int64, since time.Time) (count int, avgScore float64, err error)
}
