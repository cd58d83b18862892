package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/attempt"
	"github.com/arjunpat/mathrise/internal/config"
	"github.com/arjunpat/mathrise/internal/content"
	"github.com/arjunpat/mathrise/internal/notify"
	"github.com/arjunpat/mathrise/internal/store"
	"github.com/arjunpat/mathrise/internal/streak"
)

func testConfig() config.Config {
	return config.Config{
		LaneQueueSize:  8,
		PersistTimeout: 5 * time.Second,
		PersistRetries: 3,
		MaxTimeSpent:   4 * time.Hour,
	}
}

func newTestEngine(t *testing.T) (*Coordinator, *store.DB, *notify.Bus) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Seed(context.Background(), db))

	bus := notify.NewBus(nil)
	c := New(db, bus, testConfig(), nil)
	t.Cleanup(c.Close)
	return c, db, bus
}

func seedStudent(id string) *content.Student {
	return &content.Student{
		ID:         id,
		Grade:      8,
		EnrolledAt: time.Now().UTC(),
		Tier:       "free",
		Active:     true,
	}
}

func submission(key, problemID, answer string) attempt.Submission {
	return attempt.Submission{
		StudentID:      "demo",
		ProblemID:      problemID,
		Answer:         answer,
		TimeSpent:      40 * time.Second,
		IdempotencyKey: key,
	}
}

func TestSubmitFreshStudentCorrectAnswer(t *testing.T) {
	c, _, bus := newTestEngine(t)
	ctx := context.Background()

	var unlocks []notify.UnlockEvent
	bus.OnUnlock(func(ev notify.UnlockEvent) { unlocks = append(unlocks, ev) })

	res, err := c.SubmitAttempt(ctx, submission("k1", "alg-002", "2.5"))
	require.NoError(t, err)
	require.False(t, res.Duplicate)

	assert.True(t, res.Attempt.Correct)
	assert.Greater(t, res.Progress.Mastery, 30.0)
	assert.Equal(t, 1, res.Progress.Attempts)
	assert.Equal(t, 1, res.Progress.Correct)
	assert.Equal(t, res.Recommended, res.Progress.RecommendedDifficulty())

	assert.Equal(t, 1, res.Streak.Current)
	assert.True(t, res.StreakChange.Credited)
	assert.False(t, res.StreakChange.Reset)

	require.NotNil(t, res.NextReview)
	assert.Equal(t, 24*time.Hour, res.NextReview.Interval)
	assert.Equal(t, "algebra", res.NextReview.TopicID)

	// First correct solve unlocks the first-solve achievement, and the
	// event fires after the commit.
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, "first-solve", res.Unlocked[0].AchievementID)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "First Steps", unlocks[0].Name)
}

func TestSubmitIncorrectAnswerStillCounts(t *testing.T) {
	c, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := c.SubmitAttempt(ctx, submission("k1", "alg-002", "9.9"))
	require.NoError(t, err)

	assert.False(t, res.Attempt.Correct)
	assert.Less(t, res.Progress.Mastery, 30.0)
	assert.Equal(t, 1, res.Progress.Attempts)
	assert.Equal(t, 0, res.Progress.Correct)

	// Wrong answers still credit the streak and schedule a review.
	assert.Equal(t, 1, res.Streak.Current)
	require.NotNil(t, res.NextReview)
	assert.Empty(t, res.Unlocked)
}

func TestSubmitIdempotencyKeyReplay(t *testing.T) {
	c, db, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := c.SubmitAttempt(ctx, submission("same-key", "alg-002", "2.5"))
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Replaying the key is a success no-op, even with another answer.
	second, err := c.SubmitAttempt(ctx, submission("same-key", "alg-002", "9.9"))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Nil(t, second.Progress)

	var count int
	require.NoError(t, db.Conn().GetContext(ctx, &count,
		`SELECT COUNT(1) FROM attempts WHERE student_id = 'demo'`))
	assert.Equal(t, 1, count)

	tp, err := db.ProgressRepo().Get(ctx, "demo", "algebra")
	require.NoError(t, err)
	assert.Equal(t, first.Progress.Mastery, tp.Mastery)
	assert.Equal(t, 1, tp.Attempts)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	c, _, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		sub    attempt.Submission
		reason attempt.RejectReason
	}{
		{
			name:   "missing idempotency key",
			sub:    attempt.Submission{StudentID: "demo", ProblemID: "alg-001", Answer: "7"},
			reason: attempt.ReasonMissingKey,
		},
		{
			name:   "unknown student",
			sub:    attempt.Submission{StudentID: "ghost", ProblemID: "alg-001", Answer: "7", IdempotencyKey: "k"},
			reason: attempt.ReasonUnknownStudent,
		},
		{
			name:   "unknown problem",
			sub:    attempt.Submission{StudentID: "demo", ProblemID: "nope", Answer: "7", IdempotencyKey: "k"},
			reason: attempt.ReasonUnknownProblem,
		},
		{
			name: "negative time spent",
			sub: attempt.Submission{StudentID: "demo", ProblemID: "alg-001", Answer: "7",
				TimeSpent: -time.Second, IdempotencyKey: "k"},
			reason: attempt.ReasonImplausibleTiming,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.SubmitAttempt(ctx, tc.sub)
			var rej *attempt.RejectedError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tc.reason, rej.Reason)
		})
	}
}

func TestSubmitSerializesPerStudent(t *testing.T) {
	c, db, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, db.ContentRepo().PutStudent(ctx, seedStudent("other")))

	const perStudent = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perStudent)
	for _, studentID := range []string{"demo", "other"} {
		for i := 0; i < perStudent; i++ {
			wg.Add(1)
			go func(studentID string, i int) {
				defer wg.Done()
				sub := submission(fmt.Sprintf("%s-%d", studentID, i), "alg-002", "2.5")
				sub.StudentID = studentID
				_, err := c.SubmitAttempt(ctx, sub)
				errs <- err
			}(studentID, i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, studentID := range []string{"demo", "other"} {
		tp, err := db.ProgressRepo().Get(ctx, studentID, "algebra")
		require.NoError(t, err)
		assert.Equal(t, perStudent, tp.Attempts, studentID)
		assert.Equal(t, perStudent, tp.Correct, studentID)

		// Exactly one scheduled review item survives the barrage.
		var n int
		require.NoError(t, db.Conn().GetContext(ctx, &n, `
			SELECT COUNT(1) FROM review_items
			WHERE student_id = ? AND topic_id = 'algebra' AND state = 'scheduled'`, studentID))
		assert.Equal(t, 1, n, studentID)
	}
}

func TestSubmitAfterCloseIsRejected(t *testing.T) {
	c, _, _ := newTestEngine(t)
	c.Close()

	_, err := c.SubmitAttempt(context.Background(), submission("k1", "alg-001", "7"))
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestReadTopicProgress(t *testing.T) {
	c, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Never practiced reads as a neutral record with a derived
	// recommendation, not an error.
	view, err := c.GetTopicProgress(ctx, "demo", "geometry")
	require.NoError(t, err)
	assert.Equal(t, 30.0, view.Mastery)
	assert.Equal(t, 0, view.Attempts)
	assert.Equal(t, 4, view.Recommended)

	_, err = c.GetTopicProgress(ctx, "demo", "calculus")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	_, err = c.GetTopicProgress(ctx, "ghost", "algebra")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = c.SubmitAttempt(ctx, submission("k1", "alg-002", "2.5"))
	require.NoError(t, err)

	view, err = c.GetTopicProgress(ctx, "demo", "algebra")
	require.NoError(t, err)
	assert.Greater(t, view.Mastery, 30.0)
	assert.Equal(t, 1, view.Attempts)
}

func TestReadDueReviews(t *testing.T) {
	c, _, _ := newTestEngine(t)
	ctx := context.Background()

	due, err := c.GetDueReviews(ctx, "demo", time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = c.SubmitAttempt(ctx, submission("k1", "alg-002", "2.5"))
	require.NoError(t, err)

	// Nothing is due yet; the item sits a day out.
	due, err = c.GetDueReviews(ctx, "demo", time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = c.GetDueReviews(ctx, "demo", time.Now().UTC().Add(25*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "algebra", due[0].TopicID)
}

func TestReadStreakAndAchievements(t *testing.T) {
	c, _, _ := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sv, err := c.GetStreak(ctx, "demo", now)
	require.NoError(t, err)
	assert.Equal(t, 0, sv.Current)
	assert.Equal(t, streak.PhaseInactive, sv.Phase)

	_, err = c.SubmitAttempt(ctx, submission("k1", "alg-002", "2.5"))
	require.NoError(t, err)

	sv, err = c.GetStreak(ctx, "demo", now)
	require.NoError(t, err)
	assert.Equal(t, 1, sv.Current)
	assert.Equal(t, streak.PhaseActive, sv.Phase)

	all, err := c.GetAchievements(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "first-solve", all[0].ID)
	assert.True(t, all[0].Earned)
	assert.False(t, all[0].EarnedAt.IsZero())
	assert.False(t, all[1].Earned)
}
