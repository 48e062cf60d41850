// Package scheduler drives named periodic tasks at independent
// cadences with isolated failure handling.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"token-radar/internal/observability"
)

// Task is one periodic unit of work. A failing or panicking run never
// affects other tasks; the task itself backs off and tries again.
type Task struct {
	Name     string
	Interval time.Duration
	// Backoff is the sleep after a failed run. Zero means 2×Interval.
	Backoff time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs a fixed set of tasks until the context is cancelled.
type Scheduler struct {
	tasks   []Task
	metrics *observability.Metrics
	log     *logrus.Entry
	wg      sync.WaitGroup
}

// New creates a scheduler for the given tasks.
func New(tasks []Task, metrics *observability.Metrics, log *logrus.Entry) *Scheduler {
	return &Scheduler{tasks: tasks, metrics: metrics, log: log}
}

// Start launches one goroutine per task. Each task runs once
// immediately, then on its interval.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
}

// Wait blocks until every task goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	backoff := t.Backoff
	if backoff <= 0 {
		backoff = 2 * t.Interval
	}

	timer := time.NewTimer(0) // first run immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := t.Interval
		if err := s.runOnce(ctx, t); err != nil && ctx.Err() == nil {
			s.log.WithError(err).WithField("task", t.Name).Warn("task cycle failed, backing off")
			wait = backoff
		}
		timer.Reset(wait)
	}
}

// runOnce executes a single cycle, converting panics into errors so a
// bad cycle costs one backoff instead of the process.
func (s *Scheduler) runOnce(ctx context.Context, t Task) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
		s.metrics.RecordTaskRun(t.Name, time.Since(start).Seconds(), err)
	}()

	return t.Run(ctx)
}
