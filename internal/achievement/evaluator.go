// Package achievement evaluates unlock predicates against a student's
// aggregated statistics. The evaluator is pure; the coordinator
// persists the unlocks it proposes.
package achievement

import (
	"time"

	"github.com/arjunpat/mathrise/internal/content"
)

// Stats are the aggregates an evaluation pass reads. Refreshed by the
// coordinator after each applied attempt.
type Stats struct {
	StudentID          string
	ProblemsSolved     int // distinct problems answered correctly
	TotalAttempts      int
	PointsEarned       int
	TopicMastery       map[string]float64
	CurrentStreak      int
	CompetitionsJoined int
}

// StudentAchievement is the earned join record. Created exactly once
// per (student, achievement) pair, never mutated or deleted.
type StudentAchievement struct {
	StudentID     string
	AchievementID string
	EarnedAt      time.Time
}

// Evaluator checks achievement requirements.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns proposed unlocks for every active achievement whose
// requirements all hold and which the student has not already earned.
// Results follow the definition insertion order; re-evaluating an
// earned achievement is a no-op.
func (e *Evaluator) Evaluate(defs []content.Achievement, stats Stats, earned map[string]bool, now time.Time) []StudentAchievement {
	var unlocks []StudentAchievement
	for _, def := range defs {
		if !def.Active || earned[def.ID] || len(def.Requirements) == 0 {
			continue
		}
		if e.allMet(def.Requirements, stats) {
			unlocks = append(unlocks, StudentAchievement{
				StudentID:     stats.StudentID,
				AchievementID: def.ID,
				EarnedAt:      now,
			})
		}
	}
	return unlocks
}

func (e *Evaluator) allMet(reqs []content.Requirement, stats Stats) bool {
	for _, r := range reqs {
		if !requirementMet(r, stats) {
			return false
		}
	}
	return true
}

func requirementMet(r content.Requirement, stats Stats) bool {
	switch r.Kind {
	case content.ReqProblemsSolved:
		return float64(stats.ProblemsSolved) >= r.Target
	case content.ReqTopicMastery:
		return stats.TopicMastery[r.TopicID] >= r.Target
	case content.ReqStreakDays:
		return float64(stats.CurrentStreak) >= r.Target
	case content.ReqCompetitionsJoined:
		return float64(stats.CompetitionsJoined) >= r.Target
	case content.ReqPointsEarned:
		return float64(stats.PointsEarned) >= r.Target
	default:
		// Unknown kinds never satisfy; new variants must be added here.
		return false
	}
}
