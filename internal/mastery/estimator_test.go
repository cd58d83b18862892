package mastery

import (
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newProgress(m float64, attempts int) *TopicProgress {
	return &TopicProgress{StudentID: "s-1", TopicID: "algebra", Mastery: m, Attempts: attempts}
}

func TestBootstrapStartsNeutral(t *testing.T) {
	e := NewEstimator(DefaultParams())
	tp := e.Bootstrap("s-1", "algebra")

	if tp.Mastery != DefaultParams().Neutral {
		t.Errorf("Mastery = %v, want %v", tp.Mastery, DefaultParams().Neutral)
	}
	if tp.Attempts != 0 || tp.Correct != 0 {
		t.Errorf("counters = %d/%d, want 0/0", tp.Correct, tp.Attempts)
	}
}

func TestApply_CorrectNeverDecreases(t *testing.T) {
	e := NewEstimator(DefaultParams())

	for _, difficulty := range []int{1, 3, 5, 8, 10} {
		for _, start := range []float64{0, 30, 55, 90, 100} {
			tp := newProgress(start, 4)
			e.Apply(tp, difficulty, true, testTime)
			if tp.Mastery < start {
				t.Errorf("correct d=%d from %v dropped mastery to %v", difficulty, start, tp.Mastery)
			}
		}
	}
}

func TestApply_IncorrectNeverIncreases(t *testing.T) {
	e := NewEstimator(DefaultParams())

	for _, difficulty := range []int{1, 3, 5, 8, 10} {
		for _, start := range []float64{0, 30, 55, 90, 100} {
			tp := newProgress(start, 4)
			e.Apply(tp, difficulty, false, testTime)
			if tp.Mastery > start {
				t.Errorf("incorrect d=%d from %v raised mastery to %v", difficulty, start, tp.Mastery)
			}
		}
	}
}

func TestApply_HarderCorrectCountsMore(t *testing.T) {
	e := NewEstimator(DefaultParams())

	easy := newProgress(50, 10)
	hard := newProgress(50, 10)
	e.Apply(easy, 6, true, testTime)
	e.Apply(hard, 9, true, testTime)

	if hard.Mastery-50 <= easy.Mastery-50 {
		t.Errorf("hard gain %v not greater than easy gain %v", hard.Mastery-50, easy.Mastery-50)
	}
}

func TestApply_MissingEasyPenalizesMore(t *testing.T) {
	e := NewEstimator(DefaultParams())

	missedEasy := newProgress(70, 10)
	missedHard := newProgress(70, 10)
	e.Apply(missedEasy, 2, false, testTime)
	e.Apply(missedHard, 7, false, testTime)

	if 70-missedEasy.Mastery <= 70-missedHard.Mastery {
		t.Errorf("easy miss drop %v not greater than hard miss drop %v",
			70-missedEasy.Mastery, 70-missedHard.Mastery)
	}
}

func TestApply_MissingVeryHardProblemIsFree(t *testing.T) {
	e := NewEstimator(DefaultParams())

	// Floor for difficulty 10 is 90; mastery 40 is below it, no drop.
	tp := newProgress(40, 5)
	e.Apply(tp, 10, false, testTime)
	if tp.Mastery != 40 {
		t.Errorf("mastery = %v, want unchanged 40", tp.Mastery)
	}
}

func TestApply_BoundsHold(t *testing.T) {
	e := NewEstimator(DefaultParams())

	tp := newProgress(99, 0)
	for i := 0; i < 50; i++ {
		e.Apply(tp, 10, true, testTime)
		if tp.Mastery < 0 || tp.Mastery > 100 {
			t.Fatalf("mastery out of bounds: %v", tp.Mastery)
		}
	}

	tp = newProgress(1, 0)
	for i := 0; i < 50; i++ {
		e.Apply(tp, 1, false, testTime)
		if tp.Mastery < 0 || tp.Mastery > 100 {
			t.Fatalf("mastery out of bounds: %v", tp.Mastery)
		}
	}
}

func TestApply_RateDecays(t *testing.T) {
	e := NewEstimator(DefaultParams())

	fresh := newProgress(40, 0)
	seasoned := newProgress(40, 100)
	e.Apply(fresh, 8, true, testTime)
	e.Apply(seasoned, 8, true, testTime)

	if seasoned.Mastery-40 >= fresh.Mastery-40 {
		t.Errorf("seasoned gain %v not smaller than fresh gain %v",
			seasoned.Mastery-40, fresh.Mastery-40)
	}
}

func TestApply_CountersAndTimestamp(t *testing.T) {
	e := NewEstimator(DefaultParams())
	tp := e.Bootstrap("s-1", "algebra")

	e.Apply(tp, 5, true, testTime)
	e.Apply(tp, 5, false, testTime.Add(time.Minute))

	if tp.Attempts != 2 || tp.Correct != 1 {
		t.Errorf("counters = %d/%d, want 1/2", tp.Correct, tp.Attempts)
	}
	if got := tp.Accuracy(); got != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", got)
	}
	if !tp.LastPracticedAt.Equal(testTime.Add(time.Minute)) {
		t.Errorf("LastPracticedAt = %v", tp.LastPracticedAt)
	}
}

func TestTenConsecutiveCorrectOnIncreasingDifficulty(t *testing.T) {
	e := NewEstimator(DefaultParams())
	tp := e.Bootstrap("s-1", "algebra")

	prevMastery := tp.Mastery
	prevRec := tp.RecommendedDifficulty()
	recIncreased := false

	for i := 0; i < 10; i++ {
		difficulty := tp.RecommendedDifficulty()
		e.Apply(tp, difficulty, true, testTime.Add(time.Duration(i)*time.Minute))

		if tp.Mastery <= prevMastery {
			t.Fatalf("step %d: mastery %v did not strictly increase from %v", i, tp.Mastery, prevMastery)
		}
		if tp.RecommendedDifficulty() > prevRec {
			recIncreased = true
		}
		prevMastery = tp.Mastery
		prevRec = tp.RecommendedDifficulty()
	}

	if !recIncreased {
		t.Error("recommended difficulty never increased over ten correct attempts")
	}
}

func TestRecommendedDifficulty(t *testing.T) {
	tests := []struct {
		mastery float64
		want    int
	}{
		{0, 1},
		{9.9, 1},
		{10, 2},
		{30, 4},
		{55, 6},
		{89.9, 9},
		{90, 10},
		{100, 10},
	}
	for _, tt := range tests {
		if got := RecommendedDifficulty(tt.mastery); got != tt.want {
			t.Errorf("RecommendedDifficulty(%v) = %d, want %d", tt.mastery, got, tt.want)
		}
	}
}
