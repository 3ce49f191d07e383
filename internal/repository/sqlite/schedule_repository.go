package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository"
)

type scheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository implementation
func NewScheduleRepository(db *sql.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Insert(ctx context.Context, s models.ReviewSchedule) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("inserting schedule: learner_id=%d, content=%s/%d", s.LearnerID, s.ContentType, s.ContentID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO schedules (learner_id, content_type, content_id, ease_factor, interval_days, repetitions, next_review_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, s.LearnerID, s.ContentType, s.ContentID, s.EaseFactor, s.IntervalDays, s.Repetitions, s.NextReviewAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			log.Debug("schedule already exists: learner_id=%d, content=%s/%d", s.LearnerID, s.ContentType, s.ContentID)
			return 0, repository.ErrDuplicate
		}
		log.Error("failed to insert schedule: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get schedule id: %v", err)
		return 0, err
	}
	log.Debug("schedule inserted: id=%d", id)
	return id, nil
}

func (r *scheduleRepository) Get(ctx context.Context, id, learnerID int64) (*models.ReviewSchedule, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("getting schedule: id=%d, learner_id=%d", id, learnerID)

	query, args, err := sqlBuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{"id": id, "learner_id": learnerID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("schedule not found: id=%d", id)
		return nil, repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to get schedule: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) FindByContentRef(ctx context.Context, learnerID int64, ref models.ContentRef) (*models.ReviewSchedule, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("finding schedule by content: learner_id=%d, content=%s/%d", learnerID, ref.Type, ref.ID)

	query, args, err := sqlBuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{
			"learner_id":   learnerID,
			"content_type": ref.Type,
			"content_id":   ref.ID,
		}).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to find schedule by content: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.ReviewSchedule, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("listing schedules: learner_id=%d", learnerID)

	query, args, err := sqlBuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{"learner_id": learnerID}).
		OrderBy("next_review_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list schedules: %v", err)
		return nil, err
	}
	defer rows.Close()

	var schedules []models.ReviewSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			log.Error("failed to scan schedule row: %v", err)
			return nil, err
		}
		schedules = append(schedules, s)
	}
	log.Debug("found %d schedules", len(schedules))
	return schedules, rows.Err()
}

func (r *scheduleRepository) ApplyReview(ctx context.Context, updated models.ReviewSchedule, prevTotalReviews int, session models.ReviewSession) error {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("applying review: schedule_id=%d, interval=%d, ease=%.2f", updated.ID, updated.IntervalDays, updated.EaseFactor)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		// The total_reviews guard rejects updates computed from a stale
		// read, so two concurrent submissions can never both apply.
		res, err := tx.ExecContext(ctx, `
UPDATE schedules
SET ease_factor = ?, interval_days = ?, repetitions = ?, last_reviewed_at = ?,
    next_review_at = ?, total_reviews = ?, successful_reviews = ?, average_score = ?
WHERE id = ? AND learner_id = ? AND total_reviews = ?
`, updated.EaseFactor, updated.IntervalDays, updated.Repetitions, updated.LastReviewedAt,
			updated.NextReviewAt, updated.TotalReviews, updated.SuccessfulReviews, updated.AverageScore,
			updated.ID, updated.LearnerID, prevTotalReviews)
		if err != nil {
			log.Error("failed to update schedule: %v", err)
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			log.Debug("schedule update guard missed: id=%d, prev_total=%d", updated.ID, prevTotalReviews)
			return repository.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO review_sessions (schedule_id, learner_id, score, difficulty, quality, time_spent_seconds,
                             old_interval_days, new_interval_days, old_ease_factor, new_ease_factor, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, session.ScheduleID, session.LearnerID, session.Score, session.Difficulty, session.Quality, session.TimeSpentSeconds,
			session.OldIntervalDays, session.NewIntervalDays, session.OldEaseFactor, session.NewEaseFactor, session.ReviewedAt)
		if err != nil {
			log.Error("failed to insert review session: %v", err)
		}
		return err
	})
}

func (r *scheduleRepository) Delete(ctx context.Context, id, learnerID int64) error {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("deleting schedule: id=%d, learner_id=%d", id, learnerID)

	// Idempotent: deleting a missing schedule is not an error.
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ? AND learner_id = ?`, id, learnerID)
	if err != nil {
		log.Error("failed to delete schedule: %v", err)
	}
	return err
}

func (r *scheduleRepository) CountByLearner(ctx context.Context, learnerID int64) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE learner_id = ?`, learnerID).Scan(&count)
	if err != nil {
		log.Error("failed to count schedules: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *scheduleRepository) CountDue(ctx context.Context, learnerID int64, now time.Time) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")

	query, args, err := sqlBuilder.Select("COUNT(*)").
		From("schedules").
		Where(squirrel.Eq{"learner_id": learnerID}).
		Where(squirrel.LtOrEq{"next_review_at": now}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count due schedules: %v", err)
		return 0, err
	}
	return count, nil
}
