package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository/sqlite"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/testutil"
)

type SessionRepositorySuite struct {
	suite.Suite
	db        *sql.DB
	schedules repository.ScheduleRepository
	sessions  repository.SessionRepository
}

func (s *SessionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.schedules = sqlite.NewScheduleRepository(s.db)
	s.sessions = sqlite.NewSessionRepository(s.db)
}

func (s *SessionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// insertSession writes a session row directly; the append path through
// ApplyReview is covered by the schedule repository tests.
func (s *SessionRepositorySuite) insertSession(scheduleID, learnerID int64, score int, reviewedAt time.Time) {
	_, err := s.db.Exec(`
INSERT INTO review_sessions (schedule_id, learner_id, score, difficulty, quality, time_spent_seconds,
                             old_interval_days, new_interval_days, old_ease_factor, new_ease_factor, reviewed_at)
VALUES (?, ?, ?, 'good', 4, 30, 1, 6, 2.5, 2.5, ?)
`, scheduleID, learnerID, score, reviewedAt)
	s.Require().NoError(err)
}

func (s *SessionRepositorySuite) newScheduleID(learnerID, contentID int64) int64 {
	id, err := s.schedules.Insert(context.Background(), models.ReviewSchedule{
		LearnerID:    learnerID,
		ContentType:  models.ContentTopic,
		ContentID:    contentID,
		EaseFactor:   2.5,
		IntervalDays: 1,
		NextReviewAt: time.Now().Add(24 * time.Hour).UTC(),
	})
	s.Require().NoError(err)
	return id
}

func (s *SessionRepositorySuite) TestList_MostRecentFirst() {
	ctx := context.Background()
	scheduleID := s.newScheduleID(7, 1)
	now := time.Now().UTC()

	s.insertSession(scheduleID, 7, 60, now.Add(-3*time.Hour))
	s.insertSession(scheduleID, 7, 80, now.Add(-2*time.Hour))
	s.insertSession(scheduleID, 7, 100, now.Add(-time.Hour))

	sessions, err := s.sessions.List(ctx, 7, nil, 10)
	s.Require().NoError(err)
	s.Require().Len(sessions, 3)
	s.Assert().Equal(100, sessions[0].Score)
	s.Assert().Equal(80, sessions[1].Score)
	s.Assert().Equal(60, sessions[2].Score)
}

func (s *SessionRepositorySuite) TestList_FilterAndLimit() {
	ctx := context.Background()
	first := s.newScheduleID(7, 1)
	second := s.newScheduleID(7, 2)
	now := time.Now().UTC()

	s.insertSession(first, 7, 50, now.Add(-4*time.Hour))
	s.insertSession(first, 7, 70, now.Add(-3*time.Hour))
	s.insertSession(second, 7, 90, now.Add(-2*time.Hour))

	filtered, err := s.sessions.List(ctx, 7, &first, 10)
	s.Require().NoError(err)
	s.Require().Len(filtered, 2)
	for _, session := range filtered {
		s.Assert().Equal(first, session.ScheduleID)
	}

	limited, err := s.sessions.List(ctx, 7, nil, 2)
	s.Require().NoError(err)
	s.Assert().Len(limited, 2)
}

func (s *SessionRepositorySuite) TestList_ScopedToLearner() {
	ctx := context.Background()
	mine := s.newScheduleID(7, 1)
	theirs := s.newScheduleID(8, 1)
	now := time.Now().UTC()

	s.insertSession(mine, 7, 50, now)
	s.insertSession(theirs, 8, 90, now)

	sessions, err := s.sessions.List(ctx, 7, nil, 10)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Assert().Equal(int64(7), sessions[0].LearnerID)
}

func (s *SessionRepositorySuite) TestWindowStats() {
	ctx := context.Background()
	scheduleID := s.newScheduleID(7, 1)
	now := time.Now().UTC()

	s.insertSession(scheduleID, 7, 80, now.Add(-time.Hour))
	s.insertSession(scheduleID, 7, 90, now.Add(-48*time.Hour))
	s.insertSession(scheduleID, 7, 10, now.Add(-8*24*time.Hour)) // outside window

	count, avg, err := s.sessions.WindowStats(ctx, 7, now.Add(-7*24*time.Hour))
	s.Require().NoError(err)
	s.Assert().Equal(2, count)
	s.Assert().InDelta(85.0, avg, 1e-9)
}

func (s *SessionRepositorySuite) TestWindowStats_Empty() {
	count, avg, err := s.sessions.WindowStats(context.Background(), 7, time.Now().Add(-7*24*time.Hour))
	s.Require().NoError(err)
	s.Assert().Equal(0, count)
	s.Assert().Zero(avg)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}
