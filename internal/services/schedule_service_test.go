package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ekodecrux/expertaitutor3-sub001/internal/errors"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/rewards"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/testutil/mocks"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/worker"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(schedules *mocks.MockScheduleRepository, sessions *mocks.MockSessionRepository) *scheduleService {
	return &scheduleService{
		schedules:     schedules,
		sessions:      sessions,
		retryAttempts: 3,
		now:           func() time.Time { return fixedNow },
	}
}

func baseSchedule() *models.ReviewSchedule {
	return &models.ReviewSchedule{
		ID:           10,
		LearnerID:    7,
		ContentType:  models.ContentTopic,
		ContentID:    42,
		EaseFactor:   2.5,
		IntervalDays: 1,
		Repetitions:  0,
		NextReviewAt: fixedNow.Add(24 * time.Hour),
		CreatedAt:    fixedNow.Add(-time.Hour),
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestAddToSchedule_CreatesNew(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)
	ref := models.ContentRef{Type: models.ContentTopic, ID: 42}

	schedules.On("FindByContentRef", mock.Anything, int64(7), ref).Return(nil, repository.ErrNotFound)
	schedules.On("Insert", mock.Anything, mock.MatchedBy(func(s models.ReviewSchedule) bool {
		return s.LearnerID == 7 &&
			s.ContentType == models.ContentTopic &&
			s.ContentID == 42 &&
			s.EaseFactor == 2.5 &&
			s.IntervalDays == 1 &&
			s.Repetitions == 0 &&
			s.NextReviewAt.Equal(fixedNow.Add(24*time.Hour))
	})).Return(int64(10), nil)

	result, err := svc.AddToSchedule(context.Background(), 7, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.ScheduleID)
	assert.False(t, result.AlreadyScheduled)
	schedules.AssertExpectations(t)
}

func TestAddToSchedule_AlreadyScheduled(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)
	ref := models.ContentRef{Type: models.ContentConcept, ID: 3}

	existing := baseSchedule()
	schedules.On("FindByContentRef", mock.Anything, int64(7), ref).Return(existing, nil)

	result, err := svc.AddToSchedule(context.Background(), 7, ref)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.ScheduleID)
	assert.True(t, result.AlreadyScheduled)
	schedules.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAddToSchedule_LostCreationRace(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)
	ref := models.ContentRef{Type: models.ContentTopic, ID: 42}

	existing := baseSchedule()
	schedules.On("FindByContentRef", mock.Anything, int64(7), ref).Return(nil, repository.ErrNotFound).Once()
	schedules.On("Insert", mock.Anything, mock.Anything).Return(int64(0), repository.ErrDuplicate)
	schedules.On("FindByContentRef", mock.Anything, int64(7), ref).Return(existing, nil).Once()

	result, err := svc.AddToSchedule(context.Background(), 7, ref)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.ScheduleID)
	assert.True(t, result.AlreadyScheduled)
}

func TestAddToSchedule_InvalidContentRef(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	_, err := svc.AddToSchedule(context.Background(), 7, models.ContentRef{Type: "lesson", ID: 1})
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.AddToSchedule(context.Background(), 7, models.ContentRef{Type: models.ContentTopic, ID: 0})
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	schedules.AssertNotCalled(t, "FindByContentRef", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordReview_Good(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	sched := baseSchedule()
	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(sched, nil)

	var applied models.ReviewSchedule
	var loggedSession models.ReviewSession
	schedules.On("ApplyReview", mock.Anything, mock.Anything, 0, mock.Anything).
		Run(func(args mock.Arguments) {
			applied = args.Get(1).(models.ReviewSchedule)
			loggedSession = args.Get(3).(models.ReviewSession)
		}).
		Return(nil)

	result, err := svc.RecordReview(context.Background(), 7, 10, 85, "good", 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.IntervalDays)
	assert.InDelta(t, 2.5, result.EaseFactor, 1e-9)
	assert.True(t, result.NextReviewAt.Equal(fixedNow.Add(24*time.Hour)))
	assert.Equal(t, "Nice work! Next review tomorrow.", result.Message)

	assert.Equal(t, 1, applied.Repetitions)
	assert.Equal(t, 1, applied.TotalReviews)
	assert.Equal(t, 1, applied.SuccessfulReviews)
	assert.Equal(t, 85, applied.AverageScore)
	require.NotNil(t, applied.LastReviewedAt)
	assert.True(t, applied.LastReviewedAt.Equal(fixedNow))
	assert.True(t, applied.NextReviewAt.Equal(fixedNow.Add(24*time.Hour)),
		"next review is last review plus the new interval")

	assert.Equal(t, 4, loggedSession.Quality)
	assert.Equal(t, 1, loggedSession.OldIntervalDays)
	assert.Equal(t, 1, loggedSession.NewIntervalDays)
	assert.InDelta(t, 2.5, loggedSession.OldEaseFactor, 1e-9)
	assert.Equal(t, 30, loggedSession.TimeSpentSeconds)
}

func TestRecordReview_AgainResetsProgress(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	sched := baseSchedule()
	sched.IntervalDays = 10
	sched.Repetitions = 3
	sched.SuccessfulReviews = 3
	sched.TotalReviews = 3
	sched.AverageScore = 90
	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(sched, nil)

	var applied models.ReviewSchedule
	schedules.On("ApplyReview", mock.Anything, mock.Anything, 3, mock.Anything).
		Run(func(args mock.Arguments) { applied = args.Get(1).(models.ReviewSchedule) }).
		Return(nil)

	result, err := svc.RecordReview(context.Background(), 7, 10, 20, "again", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.IntervalDays)
	assert.InDelta(t, 1.7, result.EaseFactor, 1e-9)
	assert.Equal(t, "No problem, we'll practice this one again tomorrow.", result.Message)

	assert.Equal(t, 0, applied.Repetitions)
	assert.Equal(t, 4, applied.TotalReviews)
	assert.Equal(t, 3, applied.SuccessfulReviews, "failed review does not count as successful")
	// round((90*3 + 20) / 4) = round(72.5) = 73
	assert.Equal(t, 73, applied.AverageScore)
}

func TestRecordReview_AverageScoreIsRoundedRunningMean(t *testing.T) {
	// The stored average re-rounds on every review, so it can drift from the
	// true mean of all scores: after scores [1, 2] the true mean is 1.5 but
	// the stored value rounds to 2. This matches the historical behavior.
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	sched := baseSchedule()
	sched.TotalReviews = 1
	sched.SuccessfulReviews = 1
	sched.AverageScore = 1
	sched.Repetitions = 1
	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(sched, nil)

	var applied models.ReviewSchedule
	schedules.On("ApplyReview", mock.Anything, mock.Anything, 1, mock.Anything).
		Run(func(args mock.Arguments) { applied = args.Get(1).(models.ReviewSchedule) }).
		Return(nil)

	_, err := svc.RecordReview(context.Background(), 7, 10, 2, "good", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, applied.AverageScore)
}

func TestRecordReview_InvalidInput(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	_, err := svc.RecordReview(context.Background(), 7, 10, 101, "good", 0)
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.RecordReview(context.Background(), 7, 10, -1, "good", 0)
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.RecordReview(context.Background(), 7, 10, 50, "medium", 0)
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.RecordReview(context.Background(), 7, 10, 50, "good", -5)
	assertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	schedules.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordReview_NotFound(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	schedules.On("Get", mock.Anything, int64(99), int64(7)).Return(nil, repository.ErrNotFound)

	_, err := svc.RecordReview(context.Background(), 7, 99, 80, "good", 0)
	assertAppErrorCode(t, err, apperrors.ErrCodeNotFound)
}

func TestRecordReview_ContendedWritesExhaustRetries(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)
	svc.retryAttempts = 2

	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(baseSchedule(), nil)
	schedules.On("ApplyReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrConflict)

	_, err := svc.RecordReview(context.Background(), 7, 10, 80, "good", 0)
	assertAppErrorCode(t, err, apperrors.ErrCodeUnavailable)

	schedules.AssertNumberOfCalls(t, "ApplyReview", 2)
}

func TestRecordReview_DispatchesReward(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)

	delivered := make(chan rewards.Event, 1)
	notifier := notifierFunc(func(ctx context.Context, event rewards.Event) error {
		delivered <- event
		return nil
	})

	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	svc := newTestService(schedules, nil)
	svc.rewardPool = pool
	svc.notifier = notifier

	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(baseSchedule(), nil)
	schedules.On("ApplyReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RecordReview(context.Background(), 7, 10, 85, "easy", 10)
	require.NoError(t, err)

	select {
	case event := <-delivered:
		assert.Equal(t, int64(7), event.LearnerID)
		assert.Equal(t, int64(10), event.ScheduleID)
		assert.Equal(t, 85, event.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("reward event was not delivered")
	}
}

func TestRecordReview_NoRewardOnFailure(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)

	notified := false
	notifier := notifierFunc(func(ctx context.Context, event rewards.Event) error {
		notified = true
		return nil
	})

	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	svc := newTestService(schedules, nil)
	svc.rewardPool = pool
	svc.notifier = notifier

	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(baseSchedule(), nil)
	schedules.On("ApplyReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RecordReview(context.Background(), 7, 10, 10, "again", 0)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, pool.QueueSize())
	assert.False(t, notified)
}

type notifierFunc func(ctx context.Context, event rewards.Event) error

func (f notifierFunc) Notify(ctx context.Context, event rewards.Event) error { return f(ctx, event) }

func TestGetDueReviews_Partitions(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	list := []models.ReviewSchedule{
		{ID: 1, LearnerID: 7, NextReviewAt: fixedNow.Add(-48 * time.Hour)}, // overdue
		{ID: 2, LearnerID: 7, NextReviewAt: fixedNow.Add(-time.Hour)},     // due now
		{ID: 3, LearnerID: 7, NextReviewAt: fixedNow.Add(2 * time.Hour)},  // due soon
		{ID: 4, LearnerID: 7, NextReviewAt: fixedNow.Add(72 * time.Hour)}, // not due
	}
	schedules.On("ListByLearner", mock.Anything, int64(7)).Return(list, nil)

	due, err := svc.GetDueReviews(context.Background(), 7, false)
	require.NoError(t, err)

	require.Len(t, due.DueNow, 2)
	assert.Equal(t, models.DueStatusOverdue, due.DueNow[0].DueStatus)
	assert.Equal(t, models.DueStatusDueNow, due.DueNow[1].DueStatus)
	require.Len(t, due.DueSoon, 1)
	assert.Empty(t, due.NotDue, "not-due schedules are excluded unless requested")
	assert.Equal(t, 3, due.Total)
}

func TestGetDueReviews_IncludeNotDue(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	list := []models.ReviewSchedule{
		{ID: 1, LearnerID: 7, NextReviewAt: fixedNow.Add(-time.Hour)},
		{ID: 2, LearnerID: 7, NextReviewAt: fixedNow.Add(72 * time.Hour)},
	}
	schedules.On("ListByLearner", mock.Anything, int64(7)).Return(list, nil)

	due, err := svc.GetDueReviews(context.Background(), 7, true)
	require.NoError(t, err)

	assert.Len(t, due.DueNow, 1)
	require.Len(t, due.NotDue, 1)
	assert.Equal(t, models.DueStatusNotDue, due.NotDue[0].DueStatus)
	assert.Equal(t, 2, due.Total)
}

func TestGetReviewStats(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := newTestService(schedules, sessions)

	schedules.On("CountByLearner", mock.Anything, int64(7)).Return(12, nil)
	schedules.On("CountDue", mock.Anything, int64(7), fixedNow).Return(4, nil)
	sessions.On("WindowStats", mock.Anything, int64(7), fixedNow.Add(-7*24*time.Hour)).Return(9, 83.333333, nil)

	stats, err := svc.GetReviewStats(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalSchedules)
	assert.Equal(t, 4, stats.DueCount)
	assert.Equal(t, 9, stats.WeeklyReviews)
	assert.InDelta(t, 83.3, stats.WeeklyAvgScore, 1e-9)
}

func TestGetReviewHistory_LimitClamping(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := newTestService(schedules, sessions)

	sessions.On("List", mock.Anything, int64(7), (*int64)(nil), 50).Return([]models.ReviewSession{}, nil).Once()
	_, err := svc.GetReviewHistory(context.Background(), 7, nil, 0)
	require.NoError(t, err)

	sessions.On("List", mock.Anything, int64(7), (*int64)(nil), 200).Return([]models.ReviewSession{}, nil).Once()
	_, err = svc.GetReviewHistory(context.Background(), 7, nil, 1000)
	require.NoError(t, err)

	sessions.AssertExpectations(t)
}

func TestRemoveFromSchedule(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	schedules.On("Delete", mock.Anything, int64(10), int64(7)).Return(nil)

	require.NoError(t, svc.RemoveFromSchedule(context.Background(), 7, 10))
	schedules.AssertExpectations(t)
}

func TestGetSchedule_ComputesDueStatus(t *testing.T) {
	schedules := new(mocks.MockScheduleRepository)
	svc := newTestService(schedules, nil)

	sched := baseSchedule()
	sched.NextReviewAt = fixedNow.Add(-time.Hour)
	schedules.On("Get", mock.Anything, int64(10), int64(7)).Return(sched, nil)

	got, err := svc.GetSchedule(context.Background(), 7, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusDueNow, got.DueStatus)
}
