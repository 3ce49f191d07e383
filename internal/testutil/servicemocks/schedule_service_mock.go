package servicemocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/services"
)

// MockScheduleService is a mock implementation of services.ScheduleService.
// It lives apart from the repository mocks so that in-package services tests
// can use those without an import cycle.
type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) AddToSchedule(ctx context.Context, learnerID int64, ref models.ContentRef) (*services.AddResult, error) {
	args := m.Called(ctx, learnerID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AddResult), args.Error(1)
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, learnerID, scheduleID int64) (*models.ScheduleWithStatus, error) {
	args := m.Called(ctx, learnerID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduleWithStatus), args.Error(1)
}

func (m *MockScheduleService) GetDueReviews(ctx context.Context, learnerID int64, includeNotDue bool) (*models.DueReviews, error) {
	args := m.Called(ctx, learnerID, includeNotDue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DueReviews), args.Error(1)
}

func (m *MockScheduleService) RecordReview(ctx context.Context, learnerID, scheduleID int64, score int, difficulty string, timeSpentSeconds int) (*services.ReviewResult, error) {
	args := m.Called(ctx, learnerID, scheduleID, score, difficulty, timeSpentSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReviewResult), args.Error(1)
}

func (m *MockScheduleService) GetReviewStats(ctx context.Context, learnerID int64) (*models.ReviewStats, error) {
	args := m.Called(ctx, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}

func (m *MockScheduleService) GetReviewHistory(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error) {
	args := m.Called(ctx, learnerID, scheduleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewSession), args.Error(1)
}

func (m *MockScheduleService) RemoveFromSchedule(ctx context.Context, learnerID, scheduleID int64) error {
	args := m.Called(ctx, learnerID, scheduleID)
	return args.Error(0)
}
