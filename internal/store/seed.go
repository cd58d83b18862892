package store

import (
	"context"
	"time"

	"github.com/arjunpat/mathrise/internal/content"
)

// Seed loads a small demo catalog: a few topics and problems per
// topic, the stock achievement ladder, and one demo student. It is
// idempotent, so re-running the seed command is safe.
func Seed(ctx context.Context, db *DB) error {
	repo := db.ContentRepo()

	topics := []content.Topic{
		{ID: "arithmetic", Name: "Arithmetic"},
		{ID: "algebra", Name: "Algebra"},
		{ID: "geometry", Name: "Geometry"},
		{ID: "combinatorics", Name: "Combinatorics"},
	}
	for i := range topics {
		if err := repo.PutTopic(ctx, &topics[i]); err != nil {
			return err
		}
	}

	problems := []content.Problem{
		{
			ID: "arith-001", TopicID: "arithmetic", Subtopic: "order of operations",
			Difficulty: 1, AnswerType: content.AnswerInteger,
			Answers: []string{"14"}, Points: 10,
		},
		{
			ID: "arith-002", TopicID: "arithmetic", Subtopic: "fractions",
			Difficulty: 3, AnswerType: content.AnswerFraction,
			Answers: []string{"3/4"}, Points: 20,
		},
		{
			ID: "alg-001", TopicID: "algebra", Subtopic: "linear equations",
			Difficulty: 2, AnswerType: content.AnswerInteger,
			Answers: []string{"7"}, Points: 15,
		},
		{
			ID: "alg-002", TopicID: "algebra", Subtopic: "quadratics",
			Difficulty: 5, AnswerType: content.AnswerDecimal,
			Answers: []string{"2.5"}, Points: 30,
		},
		{
			ID: "geo-001", TopicID: "geometry", Subtopic: "angles",
			Difficulty: 2, AnswerType: content.AnswerChoice,
			Answers: []string{"90"}, Choices: []string{"45", "90", "180", "360"},
			Points: 15,
		},
		{
			ID: "comb-001", TopicID: "combinatorics", Subtopic: "counting",
			Difficulty: 4, AnswerType: content.AnswerInteger,
			Answers: []string{"120"}, Points: 25, CompetitionID: "amc8-demo",
		},
	}
	for i := range problems {
		if err := repo.PutProblem(ctx, &problems[i]); err != nil {
			return err
		}
	}

	achievements := []content.Achievement{
		{
			ID: "first-solve", Name: "First Steps", Active: true,
			Description: "Solve your first problem.",
			Requirements: []content.Requirement{
				{Kind: content.ReqProblemsSolved, Target: 1},
			},
		},
		{
			ID: "solver-25", Name: "Problem Solver", Active: true,
			Description: "Solve 25 distinct problems.",
			Requirements: []content.Requirement{
				{Kind: content.ReqProblemsSolved, Target: 25},
			},
		},
		{
			ID: "algebra-adept", Name: "Algebra Adept", Active: true,
			Description: "Reach 70 mastery in algebra.",
			Requirements: []content.Requirement{
				{Kind: content.ReqTopicMastery, Target: 70, TopicID: "algebra"},
			},
		},
		{
			ID: "week-streak", Name: "Week Warrior", Active: true,
			Description: "Practice seven days in a row.",
			Requirements: []content.Requirement{
				{Kind: content.ReqStreakDays, Target: 7},
			},
		},
		{
			ID: "competitor", Name: "Competitor", Active: true,
			Description: "Join a competition and earn 100 points.",
			Requirements: []content.Requirement{
				{Kind: content.ReqCompetitionsJoined, Target: 1},
				{Kind: content.ReqPointsEarned, Target: 100},
			},
		},
	}
	for i, a := range achievements {
		if err := repo.PutAchievement(ctx, &a, i); err != nil {
			return err
		}
	}

	demo := content.Student{
		ID:         "demo",
		Grade:      7,
		EnrolledAt: time.Now().UTC(),
		Tier:       "free",
		Active:     true,
	}
	return repo.PutStudent(ctx, &demo)
}
