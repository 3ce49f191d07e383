package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

// MockScheduleRepository is a mock implementation of repository.ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Insert(ctx context.Context, schedule models.ReviewSchedule) (int64, error) {
	args := m.Called(ctx, schedule)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScheduleRepository) Get(ctx context.Context, id, learnerID int64) (*models.ReviewSchedule, error) {
	args := m.Called(ctx, id, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindByContentRef(ctx context.Context, learnerID int64, ref models.ContentRef) (*models.ReviewSchedule, error) {
	args := m.Called(ctx, learnerID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.ReviewSchedule, error) {
	args := m.Called(ctx, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ApplyReview(ctx context.Context, updated models.ReviewSchedule, prevTotalReviews int, session models.ReviewSession) error {
	args := m.Called(ctx, updated, prevTotalReviews, session)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id, learnerID int64) error {
	args := m.Called(ctx, id, learnerID)
	return args.Error(0)
}

func (m *MockScheduleRepository) CountByLearner(ctx context.Context, learnerID int64) (int, error) {
	args := m.Called(ctx, learnerID)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) CountDue(ctx context.Context, learnerID int64, now time.Time) (int, error) {
	args := m.Called(ctx, learnerID, now)
	return args.Int(0), args.Error(1)
}
