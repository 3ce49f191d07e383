package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/ekodecrux/expertaitutor3-sub001/internal/errors"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/models"
)

type addToScheduleRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=topic concept question"`
	TopicID     *int64 `json:"topic_id" validate:"omitempty,gt=0"`
	ConceptID   *int64 `json:"concept_id" validate:"omitempty,gt=0"`
	QuestionID  *int64 `json:"question_id" validate:"omitempty,gt=0"`
}

// contentRef resolves the request into a single content reference. Exactly
// one of the id fields must be set and it must match content_type.
func (req addToScheduleRequest) contentRef() (models.ContentRef, error) {
	var ref models.ContentRef
	count := 0
	for contentType, id := range map[models.ContentType]*int64{
		models.ContentTopic:    req.TopicID,
		models.ContentConcept:  req.ConceptID,
		models.ContentQuestion: req.QuestionID,
	} {
		if id != nil {
			ref = models.ContentRef{Type: contentType, ID: *id}
			count++
		}
	}
	if count != 1 {
		return models.ContentRef{}, apperrors.NewValidationError("content reference", "exactly one of topic_id, concept_id, question_id must be set")
	}
	if ref.Type != models.ContentType(req.ContentType) {
		return models.ContentRef{}, apperrors.NewValidationError("content reference", "id field does not match content_type")
	}
	return ref, nil
}

type recordReviewRequest struct {
	Score            int    `json:"score" validate:"min=0,max=100"`
	Difficulty       string `json:"difficulty" validate:"required,oneof=again hard good easy"`
	TimeSpentSeconds int    `json:"time_spent_seconds" validate:"min=0"`
}

func (s *Server) handleAddToSchedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	learnerID, _ := learnerFromContext(r.Context())

	var req addToScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	ref, err := req.contentRef()
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.ScheduleService.AddToSchedule(r.Context(), learnerID, ref)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if result.AlreadyScheduled {
		log.Debug("content already scheduled: schedule_id=%d", result.ScheduleID)
		respondJSON(w, http.StatusOK, map[string]any{
			"success":     false,
			"schedule_id": result.ScheduleID,
			"message":     "already scheduled",
		})
		return
	}

	log.Info("content added to schedule: schedule_id=%d", result.ScheduleID)
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"schedule_id": result.ScheduleID,
	})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	learnerID, _ := learnerFromContext(r.Context())

	scheduleID, err := scheduleIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	schedule, err := s.ScheduleService.GetSchedule(r.Context(), learnerID, scheduleID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleGetDueReviews(w http.ResponseWriter, r *http.Request) {
	learnerID, _ := learnerFromContext(r.Context())
	includeNotDue := r.URL.Query().Get("include_not_due") == "true"

	due, err := s.ScheduleService.GetDueReviews(r.Context(), learnerID, includeNotDue)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, due)
}

func (s *Server) handleRecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	learnerID, _ := learnerFromContext(r.Context())

	scheduleID, err := scheduleIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req recordReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.ScheduleService.RecordReview(r.Context(), learnerID, scheduleID, req.Score, req.Difficulty, req.TimeSpentSeconds)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("review recorded: schedule_id=%d, next_review_at=%s", scheduleID, result.NextReviewAt.Format(time.RFC3339))
	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"next_review_at": result.NextReviewAt,
		"interval_days":  result.IntervalDays,
		"ease_factor":    result.EaseFactor,
		"due_status":     result.DueStatus,
		"message":        result.Message,
	})
}

func (s *Server) handleGetReviewStats(w http.ResponseWriter, r *http.Request) {
	learnerID, _ := learnerFromContext(r.Context())

	stats, err := s.ScheduleService.GetReviewStats(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetReviewHistory(w http.ResponseWriter, r *http.Request) {
	learnerID, _ := learnerFromContext(r.Context())

	var scheduleID *int64
	if raw := r.URL.Query().Get("schedule_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			handleError(w, r, apperrors.NewBadRequestError("invalid schedule_id"))
			return
		}
		scheduleID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			handleError(w, r, apperrors.NewBadRequestError("invalid limit"))
			return
		}
		limit = parsed
	}

	sessions, err := s.ScheduleService.GetReviewHistory(r.Context(), learnerID, scheduleID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.ReviewSession{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleRemoveFromSchedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	learnerID, _ := learnerFromContext(r.Context())

	scheduleID, err := scheduleIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.ScheduleService.RemoveFromSchedule(r.Context(), learnerID, scheduleID); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("schedule removed: id=%d", scheduleID)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func scheduleIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("invalid schedule ID")
	}
	return id, nil
}
