// Package scheduler runs the background sweepers that turn time passing
// into notifications: listing expiry and appointment reminders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"homefinder/internal/pkg/metrics"
)

// Task is one iteration of a periodic job.
type Task func(ctx context.Context, now time.Time) error

// Loop runs a Task on its own ticker until stopped. Each loop owns its
// interval and stop signal, so loops with different cadences never share
// a timer or a failure.
type Loop struct {
	name     string
	interval time.Duration
	task     Task
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewLoop(name string, interval time.Duration, task Task) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		task:     task,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
}

func (l *Loop) Name() string { return l.name }

// Run executes the task immediately and then on every tick. It returns
// nil once ctx is done or Stop is called. Shutdown is only observed
// between iterations: a running iteration gets a context detached from
// ctx and always finishes.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("scheduler %s: interval must be positive, got %s", l.name, l.interval)
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("scheduler_started name=%s interval=%s", l.name, l.interval)

	for {
		if l.stopped(ctx) {
			log.Printf("scheduler_stopped name=%s", l.name)
			return nil
		}

		l.RunOnce(context.WithoutCancel(ctx))

		select {
		case <-ticker.C:
		case <-l.stopCh:
		case <-ctx.Done():
		}
	}
}

// Stop asks Run to return after the current iteration. Safe to call more
// than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Loop) stopped(ctx context.Context) bool {
	select {
	case <-l.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// RunOnce runs a single iteration. Errors and panics are logged and
// counted, never propagated.
func (l *Loop) RunOnce(ctx context.Context) (err error) {
	start := time.Now()
	result := "ok"

	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			err = fmt.Errorf("scheduler %s panicked: %v", l.name, r)
			log.Printf("scheduler_panic name=%s panic=%v", l.name, r)
		}
		metrics.SweeperRuns.WithLabelValues(l.name, result).Inc()
		metrics.SweeperDuration.WithLabelValues(l.name).Observe(time.Since(start).Seconds())
	}()

	if err = l.task(ctx, l.now()); err != nil {
		result = "failed"
		log.Printf("scheduler_iteration_failed name=%s error=%q", l.name, err)
	}
	return err
}

// Report summarises one sweep.
type Report struct {
	Dispatched int
	Skipped    int
	Failed     int
	Errors     []error
}

func (r *Report) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// Err joins the per-item errors, nil when every item succeeded.
func (r Report) Err() error {
	return errors.Join(r.Errors...)
}

// Sweeper is a job that reports per-item outcomes.
type Sweeper interface {
	Name() string
	Sweep(ctx context.Context, now time.Time) Report
}

// SweepTask adapts a Sweeper to a Loop task, logging each report.
func SweepTask(s Sweeper) Task {
	return func(ctx context.Context, now time.Time) error {
		rep := s.Sweep(ctx, now)
		log.Printf("sweep_completed name=%s dispatched=%d skipped=%d failed=%d",
			s.Name(), rep.Dispatched, rep.Skipped, rep.Failed)
		return rep.Err()
	}
}

// NewSweepLoop wires a Sweeper into its own Loop.
func NewSweepLoop(s Sweeper, interval time.Duration) *Loop {
	return NewLoop(s.Name(), interval, SweepTask(s))
}
