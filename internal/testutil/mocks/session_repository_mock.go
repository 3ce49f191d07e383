package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

// MockSessionRepository is a mock implementation of repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) List(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error) {
	args := m.Called(ctx, learnerID, scheduleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewSession), args.Error(1)
}

func (m *MockSessionRepository) WindowStats(ctx context.Context, learnerID int64, since time.Time) (int, float64, error) {
	args := m.Called(ctx, learnerID, since)
	return args.Int(0), args.Get(1).(float64), args.Error(2)
}
