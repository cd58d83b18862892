// Package notify carries progression events to interested listeners
// and runs the scheduled review-digest and maintenance jobs.
package notify

import (
	"sync"
	"time"

	"github.com/arjunpat/mathrise/internal/logger"
)

// UnlockEvent is published after an achievement unlock commits.
type UnlockEvent struct {
	StudentID     string
	AchievementID string
	Name          string
	EarnedAt      time.Time
}

// ReviewDigest is published by the digest job for a student with
// reviews waiting.
type ReviewDigest struct {
	StudentID string
	DueCount  int
	At        time.Time
}

// UnlockHandler consumes unlock events.
type UnlockHandler func(UnlockEvent)

// DigestHandler consumes review digests.
type DigestHandler func(ReviewDigest)

// Bus is an in-memory fan-out of progression events. Handlers run
// synchronously in publish order; publishing never fails, and events
// fired before any handler subscribes are dropped.
type Bus struct {
	mu      sync.RWMutex
	unlocks []UnlockHandler
	digests []DigestHandler
	log     *logger.Logger
}

// NewBus creates an event bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Default()
	}
	return &Bus{log: log.WithPrefix("notify")}
}

// OnUnlock subscribes a handler to achievement unlocks.
func (b *Bus) OnUnlock(h UnlockHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlocks = append(b.unlocks, h)
}

// OnDigest subscribes a handler to review digests.
func (b *Bus) OnDigest(h DigestHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.digests = append(b.digests, h)
}

// PublishUnlock fans an unlock event out to subscribers.
func (b *Bus) PublishUnlock(ev UnlockEvent) {
	b.mu.RLock()
	handlers := b.unlocks
	b.mu.RUnlock()

	b.log.Debug("achievement unlocked: student=%s achievement=%s", ev.StudentID, ev.AchievementID)
	for _, h := range handlers {
		h(ev)
	}
}

// PublishDigest fans a review digest out to subscribers.
func (b *Bus) PublishDigest(d ReviewDigest) {
	b.mu.RLock()
	handlers := b.digests
	b.mu.RUnlock()

	for _, h := range handlers {
		h(d)
	}
}
