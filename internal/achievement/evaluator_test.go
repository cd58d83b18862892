package achievement

import (
	"testing"
	"time"

	"github.com/arjunpat/mathrise/internal/content"
)

var evalTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func baseStats() Stats {
	return Stats{
		StudentID:          "s-1",
		ProblemsSolved:     25,
		TotalAttempts:      40,
		PointsEarned:       310,
		TopicMastery:       map[string]float64{"algebra": 72.5, "geometry": 31.0},
		CurrentStreak:      9,
		CompetitionsJoined: 2,
	}
}

func defs(as ...content.Achievement) []content.Achievement { return as }

func achv(id string, reqs ...content.Requirement) content.Achievement {
	return content.Achievement{ID: id, Name: id, Active: true, Requirements: reqs}
}

func req(kind content.RequirementKind, target float64) content.Requirement {
	return content.Requirement{Kind: kind, Target: target}
}

func TestEvaluate_EachRequirementKind(t *testing.T) {
	e := NewEvaluator()
	stats := baseStats()

	tests := []struct {
		name   string
		r      content.Requirement
		unlock bool
	}{
		{"problems solved met", req(content.ReqProblemsSolved, 25), true},
		{"problems solved unmet", req(content.ReqProblemsSolved, 26), false},
		{"topic mastery met", content.Requirement{Kind: content.ReqTopicMastery, Target: 70, TopicID: "algebra"}, true},
		{"topic mastery wrong topic", content.Requirement{Kind: content.ReqTopicMastery, Target: 70, TopicID: "geometry"}, false},
		{"topic mastery unseen topic", content.Requirement{Kind: content.ReqTopicMastery, Target: 1, TopicID: "number-theory"}, false},
		{"streak met", req(content.ReqStreakDays, 7), true},
		{"streak unmet", req(content.ReqStreakDays, 10), false},
		{"competitions met", req(content.ReqCompetitionsJoined, 2), true},
		{"points met", req(content.ReqPointsEarned, 300), true},
		{"points unmet", req(content.ReqPointsEarned, 311), false},
		{"unknown kind", content.Requirement{Kind: "laps_swum", Target: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(defs(achv("a", tt.r)), stats, nil, evalTime)
			if (len(got) == 1) != tt.unlock {
				t.Errorf("unlocked = %v, want %v", len(got) == 1, tt.unlock)
			}
		})
	}
}

func TestEvaluate_AllRequirementsMustHoldSimultaneously(t *testing.T) {
	e := NewEvaluator()

	a := achv("scholar",
		req(content.ReqProblemsSolved, 20),
		req(content.ReqStreakDays, 30), // not met
	)
	got := e.Evaluate(defs(a), baseStats(), nil, evalTime)
	if len(got) != 0 {
		t.Errorf("unlocked with an unmet requirement: %+v", got)
	}
}

func TestEvaluate_EarnedIsIdempotentNoOp(t *testing.T) {
	e := NewEvaluator()

	a := achv("starter", req(content.ReqProblemsSolved, 1))
	earned := map[string]bool{"starter": true}

	got := e.Evaluate(defs(a), baseStats(), earned, evalTime)
	if len(got) != 0 {
		t.Errorf("re-unlocked an earned achievement: %+v", got)
	}
}

func TestEvaluate_InactiveDefinitionsSkipped(t *testing.T) {
	e := NewEvaluator()

	a := achv("retired", req(content.ReqProblemsSolved, 1))
	a.Active = false
	got := e.Evaluate(defs(a), baseStats(), nil, evalTime)
	if len(got) != 0 {
		t.Errorf("unlocked an inactive achievement: %+v", got)
	}
}

func TestEvaluate_NoRequirementsNeverUnlocks(t *testing.T) {
	e := NewEvaluator()

	got := e.Evaluate(defs(achv("empty")), baseStats(), nil, evalTime)
	if len(got) != 0 {
		t.Errorf("unlocked an achievement with no requirements: %+v", got)
	}
}

func TestEvaluate_MultipleUnlocksInInsertionOrder(t *testing.T) {
	e := NewEvaluator()

	ds := defs(
		achv("second-listed", req(content.ReqStreakDays, 5)),
		achv("first-blocked", req(content.ReqStreakDays, 50)),
		achv("third-listed", req(content.ReqPointsEarned, 100)),
	)
	got := e.Evaluate(ds, baseStats(), nil, evalTime)
	if len(got) != 2 {
		t.Fatalf("unlocks = %d, want 2", len(got))
	}
	if got[0].AchievementID != "second-listed" || got[1].AchievementID != "third-listed" {
		t.Errorf("unlock order = [%s, %s], want insertion order", got[0].AchievementID, got[1].AchievementID)
	}
	for _, u := range got {
		if u.StudentID != "s-1" || !u.EarnedAt.Equal(evalTime) {
			t.Errorf("bad unlock record: %+v", u)
		}
	}
}
