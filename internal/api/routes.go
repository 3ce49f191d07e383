package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.learnerMiddleware)

		r.Post("/schedule", s.handleAddToSchedule)
		r.Get("/schedule/{id}", s.handleGetSchedule)
		r.Delete("/schedule/{id}", s.handleRemoveFromSchedule)

		r.Get("/reviews/due", s.handleGetDueReviews)
		r.Post("/reviews/{id}", s.handleRecordReview)
		r.Get("/reviews/stats", s.handleGetReviewStats)
		r.Get("/reviews/history", s.handleGetReviewHistory)
	})

	return r
}
