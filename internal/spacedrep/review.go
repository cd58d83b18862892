// Package spacedrep schedules topic reviews at expanding intervals.
// Successful reviews grow the interval multiplicatively; a lapse resets
// it to the floor.
package spacedrep

import "time"

// ItemState is the lifecycle state of a review item. An item past its
// due time is "due" as a derived view of scheduled; it stays actionable
// until a new attempt on its topic transitions it to reviewed.
type ItemState string

const (
	StateScheduled ItemState = "scheduled"
	StateSuccess   ItemState = "reviewed_success"
	StateLapse     ItemState = "reviewed_lapse"
)

// ReviewItem is one queue entry. At most one active (scheduled) item
// exists per (student, topic).
type ReviewItem struct {
	ID         int64
	StudentID  string
	TopicID    string
	DueAt      time.Time
	Interval   time.Duration
	Lapses     int
	State      ItemState
	CreatedAt  time.Time
	ReviewedAt time.Time // zero while scheduled
}

// Active reports whether the item is still awaiting review.
func (ri *ReviewItem) Active() bool {
	return ri.State == StateScheduled
}

// IsDue reports whether a scheduled item is at or past its due time.
func (ri *ReviewItem) IsDue(now time.Time) bool {
	return ri.Active() && !now.Before(ri.DueAt)
}

// Overdue returns how far past due the item is, or 0 if not yet due.
func (ri *ReviewItem) Overdue(now time.Time) time.Duration {
	if now.Before(ri.DueAt) {
		return 0
	}
	return now.Sub(ri.DueAt)
}
