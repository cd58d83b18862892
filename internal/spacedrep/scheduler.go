package spacedrep

import "time"

// Params are the interval schedule constants.
type Params struct {
	// Floor is the starting and post-lapse interval.
	Floor time.Duration

	// Growth multiplies the interval on each successful review.
	Growth float64

	// Max caps the interval.
	Max time.Duration
}

// DefaultParams returns the tuned schedule: 1 day floor, 2x growth,
// 60 day cap.
func DefaultParams() Params {
	return Params{
		Floor:  24 * time.Hour,
		Growth: 2.0,
		Max:    60 * 24 * time.Hour,
	}
}

// Scheduler derives the next review item from an attempt outcome.
// Pure computation; persistence is the caller's concern.
type Scheduler struct {
	params Params
}

// NewScheduler creates a scheduler.
func NewScheduler(p Params) *Scheduler {
	if p.Growth < 1.5 {
		p.Growth = DefaultParams().Growth
	}
	if p.Floor <= 0 {
		p.Floor = DefaultParams().Floor
	}
	if p.Max < p.Floor {
		p.Max = DefaultParams().Max
	}
	return &Scheduler{params: p}
}

// Outcome describes the transition applied by Next.
type Outcome struct {
	// Retired is prev marked reviewed, nil when there was no active item.
	Retired *ReviewItem

	// Next is the replacement scheduled item.
	Next *ReviewItem
}

// Next retires the active item for a topic (if any) and produces its
// replacement. On success the interval doubles up to the cap; on a
// lapse the lapse count increments and the interval resets to the
// floor. A fresh topic with no active item starts at the floor.
func (s *Scheduler) Next(prev *ReviewItem, studentID, topicID string, correct bool, now time.Time) Outcome {
	var out Outcome

	interval := s.params.Floor
	lapses := 0

	if prev != nil && prev.Active() {
		retired := *prev
		retired.ReviewedAt = now
		if correct {
			retired.State = StateSuccess
		} else {
			retired.State = StateLapse
		}
		out.Retired = &retired

		lapses = prev.Lapses
		if correct {
			grown := time.Duration(float64(prev.Interval) * s.params.Growth)
			if grown < s.params.Floor {
				grown = s.params.Floor
			}
			if grown > s.params.Max {
				grown = s.params.Max
			}
			interval = grown
		} else {
			lapses++
			interval = s.params.Floor
		}
	}

	out.Next = &ReviewItem{
		StudentID: studentID,
		TopicID:   topicID,
		DueAt:     now.Add(interval),
		Interval:  interval,
		Lapses:    lapses,
		State:     StateScheduled,
		CreatedAt: now,
	}
	return out
}
