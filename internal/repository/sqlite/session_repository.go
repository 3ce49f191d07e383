package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) List(ctx context.Context, learnerID int64, scheduleID *int64, limit int) ([]models.ReviewSession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing review sessions: learner_id=%d, limit=%d", learnerID, limit)

	query := sqlBuilder.Select(
		"id", "schedule_id", "learner_id", "score", "difficulty", "quality",
		"time_spent_seconds", "old_interval_days", "new_interval_days",
		"old_ease_factor", "new_ease_factor", "reviewed_at",
	).From("review_sessions").
		Where(squirrel.Eq{"learner_id": learnerID}).
		OrderBy("reviewed_at DESC", "id DESC").
		Limit(uint64(limit))

	if scheduleID != nil {
		query = query.Where(squirrel.Eq{"schedule_id": *scheduleID})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list review sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ReviewSession
	for rows.Next() {
		var s models.ReviewSession
		if err := rows.Scan(
			&s.ID, &s.ScheduleID, &s.LearnerID, &s.Score, &s.Difficulty, &s.Quality,
			&s.TimeSpentSeconds, &s.OldIntervalDays, &s.NewIntervalDays,
			&s.OldEaseFactor, &s.NewEaseFactor, &s.ReviewedAt,
		); err != nil {
			log.Error("failed to scan review session row: %v", err)
			return nil, err
		}
		sessions = append(sessions, s)
	}
	log.Debug("found %d review sessions", len(sessions))
	return sessions, rows.Err()
}

func (r *sessionRepository) WindowStats(ctx context.Context, learnerID int64, since time.Time) (int, float64, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("computing session window stats: learner_id=%d, since=%s", learnerID, since.Format(time.RFC3339))

	var count int
	var avg float64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(AVG(score), 0)
FROM review_sessions
WHERE learner_id = ? AND reviewed_at >= ?
`, learnerID, since).Scan(&count, &avg)
	if err != nil {
		log.Error("failed to compute session window stats: %v", err)
		return 0, 0, err
	}
	return count, avg, nil
}
