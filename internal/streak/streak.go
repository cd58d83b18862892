// Package streak tracks daily-activity continuity per student. State
// advances only on attempt events (pull-based); no timers are needed.
package streak

import "time"

// Phase is the streak FSM state, derived from elapsed-day delta.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseActive   Phase = "active"
	PhaseGrace    Phase = "grace"
)

// State is the per-student streak record.
type State struct {
	StudentID    string
	Current      int
	Longest      int
	LastCredited time.Time // UTC midnight of the last credited day
	GraceTokens  int
}

// Params control the grace policy.
type Params struct {
	// GraceDays is how many missed days a grace token can bridge.
	GraceDays int

	// TokenEvery earns a grace token each time the streak reaches a
	// multiple of this many days.
	TokenEvery int

	// MaxTokens caps held tokens.
	MaxTokens int
}

// DefaultParams returns the tuned grace policy: one missed day may be
// bridged, a token is earned every 7 credited days, at most one held.
func DefaultParams() Params {
	return Params{GraceDays: 1, TokenEvery: 7, MaxTokens: 1}
}

// Change reports what a credit did to the state.
type Change struct {
	Credited    bool // a new day was credited
	Reset       bool // the streak restarted at 1
	TokenSpent  bool
	TokenEarned bool
}

// Tracker applies the streak FSM. Pure computation; no I/O.
type Tracker struct {
	params Params
}

// NewTracker creates a tracker.
func NewTracker(p Params) *Tracker {
	if p.TokenEvery <= 0 {
		p.TokenEvery = DefaultParams().TokenEvery
	}
	return &Tracker{params: p}
}

// Params returns the tracker's configuration.
func (t *Tracker) Params() Params {
	return t.params
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Credit records activity on the given day and updates st in place.
//
// First activity ever starts the streak at 1. A repeat credit on the
// already-credited day is a no-op. The next calendar day increments the
// streak. A gap of GraceDays missed days is bridged by spending a grace
// token when one is held. A larger gap (or no token) folds the prior
// streak into Longest and restarts at 1, never 0.
func (t *Tracker) Credit(st *State, at time.Time) Change {
	day := Day(at)

	if st.LastCredited.IsZero() {
		st.Current = 1
		st.LastCredited = day
		t.raiseLongest(st)
		return Change{Credited: true}
	}

	delta := int(day.Sub(Day(st.LastCredited)).Hours() / 24)
	switch {
	case delta <= 0:
		// Same day (or clock skew); idempotent re-credit.
		return Change{}

	case delta == 1:
		st.Current++
		st.LastCredited = day
		t.raiseLongest(st)
		return Change{Credited: true, TokenEarned: t.maybeEarnToken(st)}

	case delta-1 <= t.params.GraceDays && st.GraceTokens > 0:
		st.GraceTokens--
		st.Current++
		st.LastCredited = day
		t.raiseLongest(st)
		// A bridged day still counts toward the earn cadence.
		return Change{Credited: true, TokenSpent: true, TokenEarned: t.maybeEarnToken(st)}

	default:
		if st.Current > st.Longest {
			st.Longest = st.Current
		}
		st.Current = 1
		st.LastCredited = day
		return Change{Credited: true, Reset: true}
	}
}

// Phase derives the FSM state as of now.
func (st *State) Phase(now time.Time, p Params) Phase {
	if st.LastCredited.IsZero() {
		return PhaseInactive
	}
	delta := int(Day(now).Sub(Day(st.LastCredited)).Hours() / 24)
	switch {
	case delta <= 1:
		return PhaseActive
	case delta-1 <= p.GraceDays && st.GraceTokens > 0:
		return PhaseGrace
	default:
		return PhaseInactive
	}
}

func (t *Tracker) raiseLongest(st *State) {
	if st.Current > st.Longest {
		st.Longest = st.Current
	}
}

func (t *Tracker) maybeEarnToken(st *State) bool {
	if st.Current%t.params.TokenEvery != 0 {
		return false
	}
	if st.GraceTokens >= t.params.MaxTokens {
		return false
	}
	st.GraceTokens++
	return true
}
