package mastery

import "time"

// Params are the tunable constants of the update rule.
type Params struct {
	// Neutral is the starting mastery for a freshly bootstrapped topic.
	Neutral float64

	// BaseRate is the learning rate for the first attempt. The rate
	// decays as BaseRate / (1 + attempts/Halflife), floored at MinRate,
	// so mastery stabilizes instead of oscillating.
	BaseRate float64
	MinRate  float64
	Halflife int

	// CeilingBonus shifts the target ceiling a correct answer pulls
	// mastery toward: ceiling = min(100, 10*difficulty + CeilingBonus).
	CeilingBonus float64

	// FloorPenalty shifts the floor an incorrect answer pulls mastery
	// toward: floor = max(0, 10*difficulty - FloorPenalty).
	FloorPenalty float64

	// NominalGain is the raw gain applied when a correct answer's
	// ceiling is already at or below current mastery (trivially easy
	// problems still count, just barely).
	NominalGain float64
}

// DefaultParams returns the tuned constants.
func DefaultParams() Params {
	return Params{
		Neutral:      30.0,
		BaseRate:     0.35,
		MinRate:      0.05,
		Halflife:     12,
		CeilingBonus: 10.0,
		FloorPenalty: 10.0,
		NominalGain:  0.5,
	}
}

// Estimator applies the mastery update rule. Pure computation; no I/O.
type Estimator struct {
	params Params
}

// NewEstimator creates an estimator with the given parameters.
func NewEstimator(p Params) *Estimator {
	if p.Halflife <= 0 {
		p.Halflife = DefaultParams().Halflife
	}
	return &Estimator{params: p}
}

// Bootstrap creates a TopicProgress at neutral mastery for a topic the
// student has never practiced. First-attempt bootstrap is not an error.
func (e *Estimator) Bootstrap(studentID, topicID string) *TopicProgress {
	return &TopicProgress{
		StudentID: studentID,
		TopicID:   topicID,
		Mastery:   e.params.Neutral,
	}
}

// Apply updates tp in place for one attempt outcome.
//
// A correct answer moves mastery toward a ceiling proportional to the
// problem's difficulty; the further the ceiling is above current
// mastery, the larger the step, so hard correct answers count more. An
// incorrect answer moves mastery toward a floor below the problem's
// difficulty; the further current mastery is above that floor, the
// larger the drop, so missing easy problems penalizes more than
// missing hard ones. Mastery never decreases on a correct answer and
// never increases on an incorrect one, and stays within [0, 100].
func (e *Estimator) Apply(tp *TopicProgress, difficulty int, correct bool, at time.Time) {
	rate := e.rate(tp.Attempts)

	if correct {
		ceiling := clamp(10*float64(difficulty)+e.params.CeilingBonus, 0, 100)
		if ceiling > tp.Mastery {
			tp.Mastery += rate * (ceiling - tp.Mastery)
		} else {
			tp.Mastery += rate * e.params.NominalGain
		}
	} else {
		floor := clamp(10*float64(difficulty)-e.params.FloorPenalty, 0, 100)
		if floor < tp.Mastery {
			tp.Mastery -= rate * (tp.Mastery - floor)
		}
	}
	tp.Mastery = clamp(tp.Mastery, 0, 100)

	tp.Attempts++
	if correct {
		tp.Correct++
	}
	tp.LastPracticedAt = at
}

// rate returns the learning rate for the n-th attempt (0-based).
func (e *Estimator) rate(attempts int) float64 {
	r := e.params.BaseRate / (1.0 + float64(attempts)/float64(e.params.Halflife))
	if r < e.params.MinRate {
		return e.params.MinRate
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
