package engine

import (
	"context"
	"sync"

	"github.com/arjunpat/mathrise/internal/apperr"
)

type laneResult struct {
	res *SubmitResult
	err error
}

type laneJob struct {
	run  func() laneResult
	done chan laneResult
}

// laneGroup gives every student a single-writer work queue. Jobs for
// one student run in submission order; jobs for different students run
// concurrently.
type laneGroup struct {
	mu        sync.Mutex
	lanes     map[string]chan laneJob
	queueSize int
	closed    bool
	senders   sync.WaitGroup // callers mid-enqueue
	wg        sync.WaitGroup // drain goroutines
}

func newLaneGroup(queueSize int) *laneGroup {
	if queueSize < 1 {
		queueSize = 1
	}
	return &laneGroup{
		lanes:     make(map[string]chan laneJob),
		queueSize: queueSize,
	}
}

// enqueue places job on the student's lane, creating it on first use.
// Blocks while the lane queue is full, gives up when ctx expires.
func (g *laneGroup) enqueue(ctx context.Context, studentID string, job laneJob) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return apperr.Conflict("engine is shutting down")
	}
	lane, ok := g.lanes[studentID]
	if !ok {
		lane = make(chan laneJob, g.queueSize)
		g.lanes[studentID] = lane
		g.wg.Add(1)
		go g.drain(lane)
	}
	g.senders.Add(1)
	g.mu.Unlock()
	defer g.senders.Done()

	select {
	case lane <- job:
		return nil
	case <-ctx.Done():
		return apperr.Persistence(ctx.Err())
	}
}

func (g *laneGroup) drain(lane chan laneJob) {
	defer g.wg.Done()
	for job := range lane {
		job.done <- job.run()
	}
}

// close stops accepting jobs and waits for queued work to finish.
func (g *laneGroup) close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	// Let in-flight enqueues land before the channels close.
	g.senders.Wait()

	g.mu.Lock()
	for _, lane := range g.lanes {
		close(lane)
	}
	g.mu.Unlock()
	g.wg.Wait()
}
