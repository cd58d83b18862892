// Package content defines the immutable reference data the engine
// consumes: students, topics, problems, and achievement definitions.
// The engine only reads these; a content store owns them.
package content

import (
	"context"
	"time"
)

// AnswerType describes the shape of a problem's expected answer.
type AnswerType string

const (
	AnswerInteger  AnswerType = "integer"
	AnswerDecimal  AnswerType = "decimal"
	AnswerFraction AnswerType = "fraction"
	AnswerChoice   AnswerType = "choice"
	AnswerText     AnswerType = "text"
)

// Topic is a subject area (e.g. algebra, combinatorics).
type Topic struct {
	ID   string
	Name string
}

// Problem is a calibrated practice problem. Immutable reference data.
type Problem struct {
	ID            string
	TopicID       string
	Subtopic      string
	Difficulty    int // 1-10
	AnswerType    AnswerType
	Answers       []string // canonical accepted answers
	Choices       []string // populated for AnswerChoice problems
	Points        int
	CompetitionID string // empty when not part of a competition
}

// Student identity. Students are never deleted, only deactivated.
type Student struct {
	ID         string
	Grade      int
	EnrolledAt time.Time
	Tier       string
	Active     bool
}

// RequirementKind is the closed set of achievement predicate variants.
type RequirementKind string

const (
	ReqProblemsSolved     RequirementKind = "problems_solved"
	ReqTopicMastery       RequirementKind = "topic_mastery"
	ReqStreakDays         RequirementKind = "streak_days"
	ReqCompetitionsJoined RequirementKind = "competitions_joined"
	ReqPointsEarned       RequirementKind = "points_earned"
)

// Requirement is one predicate of an achievement. All requirements of
// an achievement must hold simultaneously for it to unlock.
type Requirement struct {
	Kind    RequirementKind
	Target  float64
	TopicID string // scope for ReqTopicMastery, empty otherwise
}

// Achievement is an unlockable definition. Immutable; may be
// deactivated externally.
type Achievement struct {
	ID           string
	Name         string
	Description  string
	Active       bool
	Requirements []Requirement
}

// Store provides read access to reference data. Implementations must
// be safe for concurrent use.
type Store interface {
	Student(ctx context.Context, id string) (*Student, error)
	Topic(ctx context.Context, id string) (*Topic, error)
	Problem(ctx context.Context, id string) (*Problem, error)

	// Achievements returns the current snapshot of active achievement
	// definitions in insertion order.
	Achievements(ctx context.Context) ([]Achievement, error)
}
