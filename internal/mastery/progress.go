// Package mastery maintains the per-(student, topic) mastery estimate.
// Mastery is a 0-100 score updated incrementally from attempt outcomes
// with a diminishing-returns learning-rate schedule.
package mastery

import "time"

// TopicProgress is the mutable aggregate for one (student, topic) pair.
// Only the estimator's update rule may change the mastery score.
type TopicProgress struct {
	StudentID       string
	TopicID         string
	Mastery         float64 // 0-100
	Attempts        int
	Correct         int
	LastPracticedAt time.Time
}

// Accuracy returns correct/attempts, or 0 before any attempt.
func (tp *TopicProgress) Accuracy() float64 {
	if tp.Attempts == 0 {
		return 0.0
	}
	return float64(tp.Correct) / float64(tp.Attempts)
}

// RecommendedDifficulty derives the next problem difficulty (1-10) from
// the current mastery score. It is recomputed on demand, never stored,
// so it cannot drift from mastery.
func (tp *TopicProgress) RecommendedDifficulty() int {
	return RecommendedDifficulty(tp.Mastery)
}

// RecommendedDifficulty maps a mastery score to a difficulty band.
// Monotone in mastery: 0-9 -> 1, 10-19 -> 2, ... 90-100 -> 10.
func RecommendedDifficulty(mastery float64) int {
	d := int(mastery/10) + 1
	if d < 1 {
		d = 1
	}
	if d > 10 {
		d = 10
	}
	return d
}
