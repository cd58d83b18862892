package notify

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/arjunpat/mathrise/internal/config"
	"github.com/arjunpat/mathrise/internal/logger"
	"github.com/arjunpat/mathrise/internal/store"
)

// Scheduler runs the recurring jobs: the hourly review digest and the
// daily attempt prune.
type Scheduler struct {
	cron *gocron.Scheduler
	db   *store.DB
	bus  *Bus
	cfg  config.Config
	log  *logger.Logger
}

// NewScheduler creates the job scheduler. Jobs do not run until Start.
func NewScheduler(db *store.DB, bus *Bus, cfg config.Config, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		cron: gocron.NewScheduler(time.UTC),
		db:   db,
		bus:  bus,
		cfg:  cfg,
		log:  log.WithPrefix("scheduler"),
	}
}

// Start registers the jobs and begins running them asynchronously.
func (s *Scheduler) Start() {
	if _, err := s.cron.Every(1).Hour().Do(s.sendDigests); err != nil {
		s.log.Error("register digest job: %v", err)
	}
	if s.cfg.AttemptRetentionDays > 0 {
		if _, err := s.cron.Every(1).Day().At("03:30").Do(s.pruneAttempts); err != nil {
			s.log.Error("register prune job: %v", err)
		}
	}
	s.cron.StartAsync()
}

// Stop halts the scheduler. Running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// sendDigests publishes a review digest for every student with due
// items, inside the configured notification window.
func (s *Scheduler) sendDigests() {
	now := time.Now().UTC()
	hour := now.Hour()
	if hour < s.cfg.NotifyStartHour || hour >= s.cfg.NotifyEndHour {
		s.log.Debug("hour %d outside notification window (%d-%d), skipping digests",
			hour, s.cfg.NotifyStartHour, s.cfg.NotifyEndHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	reviews := s.db.ReviewRepo()
	students, err := reviews.StudentsWithDue(ctx, now)
	if err != nil {
		s.log.Error("list students with due reviews: %v", err)
		return
	}

	for _, studentID := range students {
		n, err := reviews.DueCount(ctx, studentID, now)
		if err != nil {
			s.log.Error("count due reviews for %s: %v", studentID, err)
			continue
		}
		if n == 0 {
			continue
		}
		s.bus.PublishDigest(ReviewDigest{StudentID: studentID, DueCount: n, At: now})
	}
	s.log.Info("review digests published for %d students", len(students))
}

// pruneAttempts deletes attempt rows past the retention window. Only
// raw events are pruned; progress, streaks, and awards keep their own
// state.
func (s *Scheduler) pruneAttempts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.AttemptRetentionDays)
	n, err := s.db.AttemptRepo().PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("prune attempts: %v", err)
		return
	}
	if n > 0 {
		s.log.Info("pruned %d attempts older than %s", n, cutoff.Format(time.DateOnly))
	}
}
