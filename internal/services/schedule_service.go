package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	apperrors "github.com/ekodecrux/expertaitutor3-sub001/internal/errors"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/rewards"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/srs"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/worker"
)

// AddResult is the outcome of AddToSchedule. AlreadyScheduled is informational,
// not an error: the existing schedule's id is returned either way.
type AddResult struct {
	ScheduleID       int64
	AlreadyScheduled bool
}

// ReviewResult is returned to the caller after a recorded review.
type ReviewResult struct {
	NextReviewAt time.Time
	IntervalDays int
	EaseFactor   float64
	DueStatus    models.DueStatus
	Message      string
}

// ScheduleService handles spaced-repetition business logic
type ScheduleService interface {
	AddToSchedule(ctx context.Context, learnerID int64, ref models.ContentRef) (*AddResult, error)
	GetSchedule(ctx context.Context, learnerID, scheduleID int64) (*models.ScheduleWithStatus, error)
	GetDueReviews(ctx context.Context, learnerID int64, includeNotDue bool) (*models.DueReviews, error)
	RecordReview(ctx context.Context, learnerID, scheduleID int64, score int, difficulty string, timeSpentSeconds int) (*ReviewResult, error)
	GetReviewStats(ctx context.Context, learnerID int64) (*models.ReviewStats, error)
	GetReviewHistory(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error)
	RemoveFromSchedule(ctx context.Context, learnerID, scheduleID int64) error
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	statsWindow = 7 * 24 * time.Hour

	retryBackoff = 25 * time.Millisecond
)

type scheduleService struct {
	schedules     repository.ScheduleRepository
	sessions      repository.SessionRepository
	rewardPool    *worker.Pool
	notifier      rewards.Notifier
	retryAttempts int
	now           func() time.Time
}

// NewScheduleService creates a new ScheduleService. rewardPool and notifier
// may be nil when reward dispatch is not wired.
func NewScheduleService(schedules repository.ScheduleRepository, sessions repository.SessionRepository, rewardPool *worker.Pool, notifier rewards.Notifier, retryAttempts int) ScheduleService {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &scheduleService{
		schedules:     schedules,
		sessions:      sessions,
		rewardPool:    rewardPool,
		notifier:      notifier,
		retryAttempts: retryAttempts,
		now:           time.Now,
	}
}

func (s *scheduleService) AddToSchedule(ctx context.Context, learnerID int64, ref models.ContentRef) (*AddResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("adding to schedule: learner_id=%d, content=%s/%d", learnerID, ref.Type, ref.ID)

	if !ref.Type.Valid() {
		return nil, apperrors.NewValidationError("content_type", "must be one of topic, concept, question")
	}
	if ref.ID <= 0 {
		return nil, apperrors.NewValidationError("content_id", "must reference an existing item")
	}

	existing, err := s.schedules.FindByContentRef(ctx, learnerID, ref)
	if err == nil {
		log.Debug("already scheduled: id=%d", existing.ID)
		return &AddResult{ScheduleID: existing.ID, AlreadyScheduled: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to look up schedule: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	id, err := s.schedules.Insert(ctx, models.ReviewSchedule{
		LearnerID:    learnerID,
		ContentType:  ref.Type,
		ContentID:    ref.ID,
		EaseFactor:   srs.InitialEaseFactor,
		IntervalDays: 1,
		Repetitions:  0,
		NextReviewAt: now.Add(24 * time.Hour),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a creation race; the winner's schedule is the answer.
		existing, err := s.schedules.FindByContentRef(ctx, learnerID, ref)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return &AddResult{ScheduleID: existing.ID, AlreadyScheduled: true}, nil
	}
	if err != nil {
		log.Error("failed to insert schedule: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	log.Info("schedule created: id=%d, learner_id=%d", id, learnerID)
	return &AddResult{ScheduleID: id}, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, learnerID, scheduleID int64) (*models.ScheduleWithStatus, error) {
	sched, err := s.schedules.Get(ctx, scheduleID, learnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("schedule", scheduleID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &models.ScheduleWithStatus{
		ReviewSchedule: *sched,
		DueStatus:      srs.Classify(sched.NextReviewAt, s.now()),
	}, nil
}

func (s *scheduleService) GetDueReviews(ctx context.Context, learnerID int64, includeNotDue bool) (*models.DueReviews, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting due reviews: learner_id=%d, include_not_due=%t", learnerID, includeNotDue)

	schedules, err := s.schedules.ListByLearner(ctx, learnerID)
	if err != nil {
		log.Error("failed to list schedules: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	out := &models.DueReviews{}
	for _, sched := range schedules {
		entry := models.ScheduleWithStatus{
			ReviewSchedule: sched,
			DueStatus:      srs.Classify(sched.NextReviewAt, now),
		}
		switch entry.DueStatus {
		case models.DueStatusDueNow, models.DueStatusOverdue:
			out.DueNow = append(out.DueNow, entry)
		case models.DueStatusDueSoon:
			out.DueSoon = append(out.DueSoon, entry)
		case models.DueStatusNotDue:
			if includeNotDue {
				out.NotDue = append(out.NotDue, entry)
			}
		}
	}
	out.Total = len(out.DueNow) + len(out.DueSoon) + len(out.NotDue)
	return out, nil
}

func (s *scheduleService) RecordReview(ctx context.Context, learnerID, scheduleID int64, score int, difficulty string, timeSpentSeconds int) (*ReviewResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording review: schedule_id=%d, score=%d, difficulty=%s", scheduleID, score, difficulty)

	if score < 0 || score > 100 {
		return nil, apperrors.NewValidationError("score", "must be between 0 and 100")
	}
	if timeSpentSeconds < 0 {
		return nil, apperrors.NewValidationError("time_spent_seconds", "must not be negative")
	}
	quality, err := srs.QualityFor(difficulty)
	if err != nil {
		return nil, apperrors.NewValidationError("difficulty", "must be one of again, hard, good, easy")
	}

	// A conflicting concurrent submission invalidates our read of the
	// schedule, so retry from a fresh read a bounded number of times.
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}

		sched, err := s.schedules.Get(ctx, scheduleID, learnerID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("schedule", scheduleID)
		}
		if err != nil {
			log.Error("failed to get schedule: %v", err)
			return nil, apperrors.NewInternalError(err)
		}

		now := s.now()
		result := srs.Apply(quality, sched.EaseFactor, sched.IntervalDays, sched.Repetitions)

		updated := *sched
		updated.EaseFactor = result.EaseFactor
		updated.IntervalDays = result.IntervalDays
		updated.Repetitions = result.Repetitions
		updated.LastReviewedAt = &now
		updated.NextReviewAt = now.Add(time.Duration(result.IntervalDays) * 24 * time.Hour)
		updated.TotalReviews = sched.TotalReviews + 1
		if quality >= 3 {
			updated.SuccessfulReviews = sched.SuccessfulReviews + 1
		}
		// Running mean over already-rounded values, kept for compatibility
		// with historical schedule records.
		updated.AverageScore = int(math.Round(
			(float64(sched.AverageScore*sched.TotalReviews) + float64(score)) / float64(updated.TotalReviews)))

		session := models.ReviewSession{
			ScheduleID:       sched.ID,
			LearnerID:        learnerID,
			Score:            score,
			Difficulty:       difficulty,
			Quality:          quality,
			TimeSpentSeconds: timeSpentSeconds,
			OldIntervalDays:  sched.IntervalDays,
			NewIntervalDays:  result.IntervalDays,
			OldEaseFactor:    sched.EaseFactor,
			NewEaseFactor:    result.EaseFactor,
			ReviewedAt:       now,
		}

		err = s.schedules.ApplyReview(ctx, updated, sched.TotalReviews, session)
		if errors.Is(err, repository.ErrConflict) {
			log.Warn("concurrent review detected for schedule %d, retrying (attempt %d)", scheduleID, attempt+1)
			continue
		}
		if err != nil {
			log.Error("failed to apply review: %v", err)
			return nil, apperrors.NewInternalError(err)
		}

		log.Info("review recorded: schedule_id=%d, interval=%d days, ease=%.2f", scheduleID, result.IntervalDays, result.EaseFactor)
		s.dispatchReward(ctx, quality, score, updated)

		return &ReviewResult{
			NextReviewAt: updated.NextReviewAt,
			IntervalDays: result.IntervalDays,
			EaseFactor:   result.EaseFactor,
			DueStatus:    srs.Classify(updated.NextReviewAt, now),
			Message:      outcomeMessage(quality, result.IntervalDays),
		}, nil
	}

	log.Error("review for schedule %d abandoned after %d contended attempts", scheduleID, s.retryAttempts)
	return nil, apperrors.NewUnavailableError()
}

func (s *scheduleService) dispatchReward(ctx context.Context, quality, score int, updated models.ReviewSchedule) {
	if quality < 3 || s.rewardPool == nil || s.notifier == nil {
		return
	}
	job := &rewards.Job{
		Notifier: s.notifier,
		Event: rewards.Event{
			LearnerID:       updated.LearnerID,
			ScheduleID:      updated.ID,
			Score:           score,
			NewIntervalDays: updated.IntervalDays,
			ReviewedAt:      *updated.LastReviewedAt,
		},
	}
	if !s.rewardPool.TrySubmit(job) {
		logger.FromContext(ctx).Warn("reward queue full, event dropped: schedule_id=%d", updated.ID)
	}
}

func (s *scheduleService) GetReviewStats(ctx context.Context, learnerID int64) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting review stats: learner_id=%d", learnerID)

	total, err := s.schedules.CountByLearner(ctx, learnerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	due, err := s.schedules.CountDue(ctx, learnerID, now)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	weeklyCount, weeklyAvg, err := s.sessions.WindowStats(ctx, learnerID, now.Add(-statsWindow))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &models.ReviewStats{
		TotalSchedules: total,
		DueCount:       due,
		WeeklyReviews:  weeklyCount,
		WeeklyAvgScore: math.Round(weeklyAvg*10) / 10,
	}, nil
}

func (s *scheduleService) GetReviewHistory(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting review history: learner_id=%d, limit=%d", learnerID, limit)

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	sessions, err := s.sessions.List(ctx, learnerID, scheduleID, limit)
	if err != nil {
		log.Error("failed to list review sessions: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return sessions, nil
}

func (s *scheduleService) RemoveFromSchedule(ctx context.Context, learnerID, scheduleID int64) error {
	log := logger.FromContext(ctx)
	log.Debug("removing from schedule: id=%d, learner_id=%d", scheduleID, learnerID)

	if err := s.schedules.Delete(ctx, scheduleID, learnerID); err != nil {
		log.Error("failed to delete schedule: %v", err)
		return apperrors.NewInternalError(err)
	}
	return nil
}

func outcomeMessage(quality, intervalDays int) string {
	if quality < 3 {
		return "No problem, we'll practice this one again tomorrow."
	}
	if intervalDays == 1 {
		return "Nice work! Next review tomorrow."
	}
	return fmt.Sprintf("Nice work! Next review in %d days.", intervalDays)
}
