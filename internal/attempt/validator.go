package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/content"
	"github.com/arjunpat/mathrise/internal/logger"
)

// KeyChecker reports whether an idempotency key has been seen for a
// student. Backed by the attempts table.
type KeyChecker interface {
	SeenKey(ctx context.Context, studentID, key string) (bool, error)
}

// Validator normalizes and sanity-checks incoming submissions. It
// touches only immutable reference data and the idempotency-key set,
// so it is safe to run concurrently across students.
type Validator struct {
	content      content.Store
	keys         KeyChecker
	maxTimeSpent time.Duration
	log          *logger.Logger
}

// NewValidator creates a Validator. maxTimeSpent is the sanity ceiling
// on reported time spent.
func NewValidator(cs content.Store, keys KeyChecker, maxTimeSpent time.Duration) *Validator {
	if maxTimeSpent <= 0 {
		maxTimeSpent = 4 * time.Hour
	}
	return &Validator{
		content:      cs,
		keys:         keys,
		maxTimeSpent: maxTimeSpent,
		log:          logger.Default().WithPrefix("validator"),
	}
}

// Validate checks a submission and returns a typed attempt event.
// On failure it returns a *RejectedError and performs no mutation.
func (v *Validator) Validate(ctx context.Context, sub Submission) (*Attempt, error) {
	if sub.IdempotencyKey == "" {
		return nil, v.reject(sub, ReasonMissingKey, "idempotency key is required")
	}
	if sub.TimeSpent < 0 {
		return nil, v.reject(sub, ReasonImplausibleTiming, "negative time spent")
	}
	if sub.TimeSpent > v.maxTimeSpent {
		return nil, v.reject(sub, ReasonImplausibleTiming,
			fmt.Sprintf("time spent %s exceeds ceiling %s", sub.TimeSpent, v.maxTimeSpent))
	}

	student, err := v.content.Student(ctx, sub.StudentID)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, v.reject(sub, ReasonUnknownStudent, sub.StudentID)
		}
		return nil, err
	}
	if !student.Active {
		return nil, v.reject(sub, ReasonInactiveStudent, sub.StudentID)
	}

	problem, err := v.content.Problem(ctx, sub.ProblemID)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, v.reject(sub, ReasonUnknownProblem, sub.ProblemID)
		}
		return nil, err
	}

	seen, err := v.keys.SeenKey(ctx, sub.StudentID, sub.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, v.reject(sub, ReasonDuplicateKey, sub.IdempotencyKey)
	}

	correct, err := CheckAnswer(sub.Answer, problem)
	if err != nil {
		return nil, v.reject(sub, ReasonMalformedAnswer, err.Error())
	}

	at := sub.SubmittedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return &Attempt{
		ID:             uuid.NewString(),
		StudentID:      sub.StudentID,
		ProblemID:      problem.ID,
		TopicID:        problem.TopicID,
		Difficulty:     problem.Difficulty,
		Points:         problem.Points,
		CompetitionID:  problem.CompetitionID,
		Answer:         sub.Answer,
		Correct:        correct,
		TimeSpent:      sub.TimeSpent,
		HintsUsed:      sub.HintsUsed,
		IdempotencyKey: sub.IdempotencyKey,
		SubmittedAt:    at,
	}, nil
}

func (v *Validator) reject(sub Submission, reason RejectReason, detail string) *RejectedError {
	v.log.Debug("rejected attempt: student=%s problem=%s reason=%s detail=%s",
		sub.StudentID, sub.ProblemID, reason, detail)
	return Rejected(reason, detail)
}
