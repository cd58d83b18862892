package engine

import (
	"context"
	"time"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/content"
	"github.com/arjunpat/mathrise/internal/mastery"
	"github.com/arjunpat/mathrise/internal/spacedrep"
	"github.com/arjunpat/mathrise/internal/streak"
)

// TopicProgressView is the read model for one (student, topic) pair.
// RecommendedDifficulty is derived on read, never stored.
type TopicProgressView struct {
	mastery.TopicProgress
	Recommended int
}

// GetTopicProgress returns a student's progress on a topic. A topic
// the student has never practiced reads as a fresh neutral record.
func (c *Coordinator) GetTopicProgress(ctx context.Context, studentID, topicID string) (*TopicProgressView, error) {
	if _, err := c.content.Student(ctx, studentID); err != nil {
		return nil, err
	}
	if _, err := c.content.Topic(ctx, topicID); err != nil {
		return nil, err
	}

	tp, err := c.db.ProgressRepo().Get(ctx, studentID, topicID)
	if apperr.Is(err, apperr.CodeNotFound) {
		tp = c.estimator.Bootstrap(studentID, topicID)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &TopicProgressView{
		TopicProgress: *tp,
		Recommended:   tp.RecommendedDifficulty(),
	}, nil
}

// GetDueReviews returns the student's review queue: items due at or
// before now, most urgent first, weakest topic breaking ties.
func (c *Coordinator) GetDueReviews(ctx context.Context, studentID string, now time.Time, limit int) ([]*spacedrep.ReviewItem, error) {
	if _, err := c.content.Student(ctx, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return c.db.ReviewRepo().NextDue(ctx, studentID, now, limit)
}

// StreakView is the read model for a student's streak.
type StreakView struct {
	streak.State
	Phase streak.Phase
}

// GetStreak returns the student's streak with its derived phase.
func (c *Coordinator) GetStreak(ctx context.Context, studentID string, now time.Time) (*StreakView, error) {
	if _, err := c.content.Student(ctx, studentID); err != nil {
		return nil, err
	}
	st, err := c.db.StreakRepo().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &StreakView{
		State: *st,
		Phase: st.Phase(now, c.tracker.Params()),
	}, nil
}

// AchievementStatus pairs a definition with the student's earned state.
type AchievementStatus struct {
	content.Achievement
	Earned   bool
	EarnedAt time.Time
}

// GetAchievements returns every active achievement in definition
// order, flagged with whether and when the student earned it.
func (c *Coordinator) GetAchievements(ctx context.Context, studentID string) ([]AchievementStatus, error) {
	if _, err := c.content.Student(ctx, studentID); err != nil {
		return nil, err
	}
	defs, err := c.content.Achievements(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := c.db.AwardRepo().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	earnedAt := make(map[string]time.Time, len(earned))
	for _, sa := range earned {
		earnedAt[sa.AchievementID] = sa.EarnedAt
	}

	out := make([]AchievementStatus, 0, len(defs))
	for _, def := range defs {
		status := AchievementStatus{Achievement: def}
		if at, ok := earnedAt[def.ID]; ok {
			status.Earned = true
			status.EarnedAt = at
		}
		out = append(out, status)
	}
	return out, nil
}
