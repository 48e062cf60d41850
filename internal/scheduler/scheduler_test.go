package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"token-radar/internal/observability"
)

func newTestScheduler(tasks []Task) *Scheduler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(tasks, observability.DefaultMetrics, log.WithField("component", "test"))
}

func TestScheduler_RunsTasksOnInterval(t *testing.T) {
	var runs atomic.Int64

	s := newTestScheduler([]Task{{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	s.Wait()

	if got := runs.Load(); got < 3 {
		t.Errorf("task ran %d times in 100ms at 10ms interval, want >= 3", got)
	}
}

func TestScheduler_FailureIsIsolated(t *testing.T) {
	var healthyRuns, failingRuns atomic.Int64

	s := newTestScheduler([]Task{
		{
			Name:     "failing",
			Interval: 5 * time.Millisecond,
			Backoff:  200 * time.Millisecond,
			Run: func(context.Context) error {
				failingRuns.Add(1)
				return errors.New("boom")
			},
		},
		{
			Name:     "healthy",
			Interval: 5 * time.Millisecond,
			Run: func(context.Context) error {
				healthyRuns.Add(1)
				return nil
			},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	s.Wait()

	// The failing task backs off hard; the healthy one keeps its cadence.
	if got := healthyRuns.Load(); got < 5 {
		t.Errorf("healthy task ran %d times, want >= 5", got)
	}
	if got := failingRuns.Load(); got > 2 {
		t.Errorf("failing task ran %d times despite 200ms backoff, want <= 2", got)
	}
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	var runs atomic.Int64

	s := newTestScheduler([]Task{{
		Name:     "panicky",
		Interval: 5 * time.Millisecond,
		Backoff:  10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			panic("cycle blew up")
		},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()
	s.Wait()

	// Survived at least one panic and kept going.
	if got := runs.Load(); got < 2 {
		t.Errorf("panicking task ran %d times, want >= 2", got)
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	var runs atomic.Int64

	s := newTestScheduler([]Task{{
		Name:     "worker",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	s.Wait()

	settled := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if got := runs.Load(); got != settled {
		t.Errorf("task ran after cancel: %d -> %d", settled, got)
	}
}
