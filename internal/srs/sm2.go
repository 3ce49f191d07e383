package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

// MinEaseFactor is the SM-2 floor. There is deliberately no ceiling:
// repeated "easy" ratings keep growing the ease factor and the intervals.
const MinEaseFactor = 1.3

// InitialEaseFactor is assigned to every new schedule.
const InitialEaseFactor = 2.5

// Difficulty labels accepted at the API boundary. The four-button rating
// collapses the SM-2 failure range (0-2) into a single "again"; qualities
// 1 and 2 are unreachable on purpose.
const (
	DifficultyAgain = "again"
	DifficultyHard  = "hard"
	DifficultyGood  = "good"
	DifficultyEasy  = "easy"
)

// QualityFor maps a difficulty label to its SM-2 quality value.
func QualityFor(difficulty string) (int, error) {
	switch difficulty {
	case DifficultyAgain:
		return 0, nil
	case DifficultyHard:
		return 3, nil
	case DifficultyGood:
		return 4, nil
	case DifficultyEasy:
		return 5, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", difficulty)
}

// Result holds the state produced by one SM-2 step.
type Result struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// Apply runs one SM-2 step. quality is 0-5; a quality below 3 is a failed
// recall and resets the repetition streak and interval. The ease factor is
// clamped from below only.
func Apply(quality int, easeFactor float64, intervalDays, repetitions int) Result {
	q := float64(quality)
	ef := easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	if quality < 3 {
		return Result{EaseFactor: ef, IntervalDays: 1, Repetitions: 0}
	}

	reps := repetitions + 1
	var interval int
	switch reps {
	case 1:
		interval = 1
	case 2:
		interval = 6
	default:
		interval = int(math.Round(float64(intervalDays) * ef))
	}
	return Result{EaseFactor: ef, IntervalDays: interval, Repetitions: reps}
}

// Classify buckets a schedule's next review time relative to now.
// Boundaries are 24 hours out (not_due/due_soon), the due moment itself
// (due_soon/due_now), and 24 hours past due (due_now/overdue).
func Classify(nextReviewAt, now time.Time) models.DueStatus {
	hoursUntilDue := nextReviewAt.Sub(now).Hours()
	switch {
	case hoursUntilDue > 24:
		return models.DueStatusNotDue
	case hoursUntilDue > 0:
		return models.DueStatusDueSoon
	case hoursUntilDue > -24:
		return models.DueStatusDueNow
	default:
		return models.DueStatusOverdue
	}
}
