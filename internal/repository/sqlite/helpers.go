package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Helper functions shared across repository implementations

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	return nil
}

var scheduleColumns = []string{
	"id", "learner_id", "content_type", "content_id", "ease_factor",
	"interval_days", "repetitions", "last_reviewed_at", "next_review_at",
	"total_reviews", "successful_reviews", "average_score", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (models.ReviewSchedule, error) {
	var s models.ReviewSchedule
	var lastReviewed sql.NullTime
	err := row.Scan(
		&s.ID, &s.LearnerID, &s.ContentType, &s.ContentID, &s.EaseFactor,
		&s.IntervalDays, &s.Repetitions, &lastReviewed, &s.NextReviewAt,
		&s.TotalReviews, &s.SuccessfulReviews, &s.AverageScore, &s.CreatedAt,
	)
	if err != nil {
		return models.ReviewSchedule{}, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		s.LastReviewedAt = &t
	}
	return s, nil
}
