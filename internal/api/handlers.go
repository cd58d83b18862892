package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/attempt"
)

type submitRequest struct {
	StudentID      string `json:"student_id"`
	ProblemID      string `json:"problem_id"`
	Answer         string `json:"answer"`
	TimeSpentMS    int64  `json:"time_spent_ms"`
	HintsUsed      int    `json:"hints_used"`
	IdempotencyKey string `json:"idempotency_key"`
}

type submitResponse struct {
	Duplicate bool `json:"duplicate"`

	AttemptID   string   `json:"attempt_id,omitempty"`
	Correct     bool     `json:"correct"`
	TopicID     string   `json:"topic_id,omitempty"`
	Mastery     float64  `json:"mastery"`
	Recommended int      `json:"recommended_difficulty,omitempty"`
	Streak      int      `json:"streak"`
	StreakReset bool     `json:"streak_reset,omitempty"`
	NextReview  string   `json:"next_review_at,omitempty"`
	Unlocked    []string `json:"unlocked,omitempty"`
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, apperr.Validation("invalid request body: %v", err))
		return
	}

	res, err := s.Engine.SubmitAttempt(r.Context(), attempt.Submission{
		StudentID:      req.StudentID,
		ProblemID:      req.ProblemID,
		Answer:         req.Answer,
		TimeSpent:      time.Duration(req.TimeSpentMS) * time.Millisecond,
		HintsUsed:      req.HintsUsed,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	if res.Duplicate {
		writeJSON(w, http.StatusOK, submitResponse{Duplicate: true})
		return
	}

	resp := submitResponse{
		AttemptID:   res.Attempt.ID,
		Correct:     res.Attempt.Correct,
		TopicID:     res.Attempt.TopicID,
		Mastery:     res.Progress.Mastery,
		Recommended: res.Recommended,
		Streak:      res.Streak.Current,
		StreakReset: res.StreakChange.Reset,
		NextReview:  res.NextReview.DueAt.Format(time.RFC3339),
	}
	for _, u := range res.Unlocked {
		resp.Unlocked = append(resp.Unlocked, u.AchievementID)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTopicProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.GetTopicProgress(r.Context(),
		chi.URLParam(r, "studentID"), chi.URLParam(r, "topicID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"student_id":             view.StudentID,
		"topic_id":               view.TopicID,
		"mastery":                view.Mastery,
		"attempts":               view.Attempts,
		"correct":                view.Correct,
		"accuracy":               view.Accuracy(),
		"recommended_difficulty": view.Recommended,
	})
}

func (s *Server) handleDueReviews(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			handleError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	now := time.Now().UTC()
	items, err := s.Engine.GetDueReviews(r.Context(), chi.URLParam(r, "studentID"), now, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"topic_id":    item.TopicID,
			"due_at":      item.DueAt.Format(time.RFC3339),
			"overdue":     item.Overdue(now).String(),
			"interval_ms": item.Interval.Milliseconds(),
			"lapses":      item.Lapses,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": out})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	sv, err := s.Engine.GetStreak(r.Context(), chi.URLParam(r, "studentID"), now)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := map[string]any{
		"student_id":   sv.StudentID,
		"current":      sv.Current,
		"longest":      sv.Longest,
		"grace_tokens": sv.GraceTokens,
		"phase":        sv.Phase,
	}
	if !sv.LastCredited.IsZero() {
		resp["last_credited"] = sv.LastCredited.Format(time.DateOnly)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	all, err := s.Engine.GetAchievements(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(all))
	for _, a := range all {
		entry := map[string]any{
			"id":          a.ID,
			"name":        a.Name,
			"description": a.Description,
			"earned":      a.Earned,
		}
		if a.Earned {
			entry["earned_at"] = a.EarnedAt.Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
