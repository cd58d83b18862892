// Package attempt defines problem-attempt events and the validator
// that normalizes raw submissions before they touch any state.
package attempt

import (
	"time"
)

// Submission is a raw attempt as received from a caller.
type Submission struct {
	StudentID      string
	ProblemID      string
	Answer         string
	TimeSpent      time.Duration
	HintsUsed      int
	IdempotencyKey string
	SubmittedAt    time.Time // zero means "now"
}

// Attempt is a validated, normalized, correctness-tagged attempt event.
// Immutable once created.
type Attempt struct {
	ID             string
	StudentID      string
	ProblemID      string
	TopicID        string
	Difficulty     int
	Points         int
	CompetitionID  string
	Answer         string
	Correct        bool
	TimeSpent      time.Duration
	HintsUsed      int
	IdempotencyKey string
	SubmittedAt    time.Time
}

// RejectReason classifies why a submission was rejected.
type RejectReason string

const (
	ReasonUnknownStudent    RejectReason = "unknown_student"
	ReasonUnknownProblem    RejectReason = "unknown_problem"
	ReasonInactiveStudent   RejectReason = "inactive_student"
	ReasonDuplicateKey      RejectReason = "duplicate_key"
	ReasonMissingKey        RejectReason = "missing_key"
	ReasonMalformedAnswer   RejectReason = "malformed_answer"
	ReasonImplausibleTiming RejectReason = "implausible_timing"
)

// RejectedError reports a rejected submission with a specific reason.
// No state mutation has occurred when it is returned.
type RejectedError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Detail
}

// Rejected creates a RejectedError.
func Rejected(reason RejectReason, detail string) *RejectedError {
	return &RejectedError{Reason: reason, Detail: detail}
}
