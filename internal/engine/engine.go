// Package engine coordinates the progression pipeline: a validated
// attempt updates mastery, streak, and the review schedule, then
// achievement unlocks are evaluated, all in one atomic commit per
// attempt. Work for a given student is serialized on a per-student
// lane, so two attempts from the same student never interleave.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/achievement"
	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/attempt"
	"github.com/arjunpat/mathrise/internal/config"
	"github.com/arjunpat/mathrise/internal/content"
	"github.com/arjunpat/mathrise/internal/logger"
	"github.com/arjunpat/mathrise/internal/mastery"
	"github.com/arjunpat/mathrise/internal/notify"
	"github.com/arjunpat/mathrise/internal/spacedrep"
	"github.com/arjunpat/mathrise/internal/store"
	"github.com/arjunpat/mathrise/internal/streak"
	"github.com/arjunpat/mathrise/pkg/retry"
)

// SubmitResult reports everything one applied attempt changed.
type SubmitResult struct {
	Attempt   *attempt.Attempt
	Duplicate bool // idempotency-key replay; nothing was changed

	Progress     *mastery.TopicProgress
	Recommended  int
	Streak       *streak.State
	StreakChange streak.Change
	NextReview   *spacedrep.ReviewItem
	Unlocked     []achievement.StudentAchievement
}

// Coordinator owns the submit pipeline and the read API.
type Coordinator struct {
	db        *store.DB
	content   content.Store
	validator *attempt.Validator
	estimator *mastery.Estimator
	tracker   *streak.Tracker
	scheduler *spacedrep.Scheduler
	evaluator *achievement.Evaluator
	bus       *notify.Bus

	retryCfg       retry.Config
	persistTimeout time.Duration
	log            *logger.Logger

	lanes *laneGroup
}

// New wires a coordinator over the given database.
func New(db *store.DB, bus *notify.Bus, cfg config.Config, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Default()
	}
	contentRepo := db.ContentRepo()

	retryCfg := retry.DefaultConfig()
	if cfg.PersistRetries > 0 {
		retryCfg.Attempts = cfg.PersistRetries
	}

	c := &Coordinator{
		db:             db,
		content:        contentRepo,
		validator:      attempt.NewValidator(contentRepo, db.AttemptRepo(), cfg.MaxTimeSpent),
		estimator:      mastery.NewEstimator(mastery.DefaultParams()),
		tracker:        streak.NewTracker(streak.DefaultParams()),
		scheduler:      spacedrep.NewScheduler(spacedrep.DefaultParams()),
		evaluator:      achievement.NewEvaluator(),
		bus:            bus,
		retryCfg:       retryCfg,
		persistTimeout: cfg.PersistTimeout,
		log:            log.WithPrefix("engine"),
	}
	c.lanes = newLaneGroup(cfg.LaneQueueSize)
	return c
}

// Close drains the lanes and waits for in-flight work.
func (c *Coordinator) Close() {
	c.lanes.close()
}

// SubmitAttempt validates a submission and applies it. A replayed
// idempotency key returns Duplicate=true and changes nothing. The
// caller's context bounds waiting for a lane slot and for the result;
// once the update is in flight it always runs to completion so the
// store never observes half an attempt.
func (c *Coordinator) SubmitAttempt(ctx context.Context, sub attempt.Submission) (*SubmitResult, error) {
	att, err := c.validator.Validate(ctx, sub)
	if err != nil {
		var rej *attempt.RejectedError
		if errors.As(err, &rej) && rej.Reason == attempt.ReasonDuplicateKey {
			return &SubmitResult{Duplicate: true}, nil
		}
		return nil, err
	}

	done := make(chan laneResult, 1)
	job := laneJob{
		run: func() laneResult {
			res, err := c.apply(att)
			return laneResult{res: res, err: err}
		},
		done: done,
	}
	if err := c.lanes.enqueue(ctx, att.StudentID, job); err != nil {
		return nil, err
	}

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		// The lane still applies the attempt; the caller just stops
		// waiting for it.
		c.log.Warn("caller gave up waiting for attempt %s (student %s): %v",
			att.ID, att.StudentID, ctx.Err())
		return nil, apperr.Persistence(ctx.Err())
	}
}

// apply runs on a lane goroutine with its own deadline, detached from
// the submitting caller.
func (c *Coordinator) apply(att *attempt.Attempt) (*SubmitResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
	defer cancel()

	// Reference data loads outside the write transaction; the single
	// SQLite connection is busy once the transaction begins.
	defs, err := c.content.Achievements(ctx)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	var res *SubmitResult
	err = retry.Do(ctx, c.retryCfg, func() error {
		r, err := c.applyTx(ctx, att, defs)
		if err != nil {
			if apperr.Is(err, apperr.CodeValidation) || apperr.Is(err, apperr.CodeNotFound) {
				return retry.Permanent(err)
			}
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Persistence(err)
	}

	if !res.Duplicate {
		for _, u := range res.Unlocked {
			name := u.AchievementID
			for _, d := range defs {
				if d.ID == u.AchievementID {
					name = d.Name
					break
				}
			}
			c.bus.PublishUnlock(notify.UnlockEvent{
				StudentID:     u.StudentID,
				AchievementID: u.AchievementID,
				Name:          name,
				EarnedAt:      u.EarnedAt,
			})
		}
	}
	return res, nil
}

// applyTx performs the whole progression update in one transaction.
func (c *Coordinator) applyTx(ctx context.Context, att *attempt.Attempt, defs []content.Achievement) (*SubmitResult, error) {
	attempts := c.db.AttemptRepo()
	progress := c.db.ProgressRepo()
	streaks := c.db.StreakRepo()
	reviews := c.db.ReviewRepo()
	awards := c.db.AwardRepo()

	res := &SubmitResult{Attempt: att}
	at := att.SubmittedAt

	err := c.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// The unique key constraint is the authoritative duplicate
		// check; the validator's pre-check only catches early replays.
		if err := attempts.Insert(ctx, tx, att); err != nil {
			if store.IsDuplicateKeyError(err) {
				res = &SubmitResult{Duplicate: true}
				return errDuplicate
			}
			return err
		}

		tp, err := progress.GetTx(ctx, tx, att.StudentID, att.TopicID)
		if apperr.Is(err, apperr.CodeNotFound) {
			tp = c.estimator.Bootstrap(att.StudentID, att.TopicID)
			err = nil
		}
		if err != nil {
			return err
		}
		c.estimator.Apply(tp, att.Difficulty, att.Correct, at)
		if err := progress.Upsert(ctx, tx, tp); err != nil {
			return err
		}
		res.Progress = tp
		res.Recommended = tp.RecommendedDifficulty()

		st, err := streaks.GetTx(ctx, tx, att.StudentID)
		if err != nil {
			return err
		}
		res.StreakChange = c.tracker.Credit(st, at)
		if err := streaks.Upsert(ctx, tx, st); err != nil {
			return err
		}
		res.Streak = st

		prev, err := reviews.ActiveTx(ctx, tx, att.StudentID, att.TopicID)
		if err != nil {
			return err
		}
		out := c.scheduler.Next(prev, att.StudentID, att.TopicID, att.Correct, at)
		if err := reviews.Apply(ctx, tx, out); err != nil {
			return err
		}
		res.NextReview = out.Next

		stats, err := progress.StatsTx(ctx, tx, att.StudentID)
		if err != nil {
			return err
		}
		stats.CurrentStreak = st.Current

		earned, err := awards.EarnedSetTx(ctx, tx, att.StudentID)
		if err != nil {
			return err
		}
		unlocks := c.evaluator.Evaluate(defs, stats, earned, at)
		for i := range unlocks {
			if err := awards.Insert(ctx, tx, &unlocks[i]); err != nil {
				return err
			}
		}
		res.Unlocked = unlocks
		return nil
	})
	if errors.Is(err, errDuplicate) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	c.log.Debug("attempt %s applied: student=%s topic=%s correct=%t mastery=%.1f unlocks=%d",
		att.ID, att.StudentID, att.TopicID, att.Correct, res.Progress.Mastery, len(res.Unlocked))
	return res, nil
}

// errDuplicate aborts the transaction after a duplicate-key insert
// without surfacing an error to the caller.
var errDuplicate = errors.New("duplicate idempotency key")
