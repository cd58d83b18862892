package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/attempts", s.handleSubmitAttempt)
		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/topics/{topicID}/progress", s.handleTopicProgress)
			r.Get("/reviews", s.handleDueReviews)
			r.Get("/streak", s.handleStreak)
			r.Get("/achievements", s.handleAchievements)
		})
	})
	return r
}
