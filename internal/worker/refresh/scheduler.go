// Package refresh keeps the leaderboard and chart materialized views fresh.
//
// A Scheduler wakes at local noon and midnight and refreshes its jobs one at a
// time, pausing for a cooldown between jobs to spread load on the database.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meditationmind/bloombot/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultCooldown is the pause between two refresh jobs.
	DefaultCooldown = 2 * time.Minute
	// Cadence is the time between two cycles.
	Cadence = 12 * time.Hour
)

var (
	// ErrNoJobs indicates a scheduler was created without jobs.
	ErrNoJobs = errors.New("refresh scheduler has no jobs")
	// ErrAlreadyRunning indicates Serve was called while the scheduler is already running.
	ErrAlreadyRunning = errors.New("refresh scheduler already running")
)

// Observer is told what the scheduler is doing.
type Observer interface {
	UpdateStatus(task string, progress int)
	SetHealthy(healthy bool)
}

type nopObserver struct{}

func (nopObserver) UpdateStatus(string, int) {}
func (nopObserver) SetHealthy(bool)          {}

type multiObserver []Observer

func (m multiObserver) UpdateStatus(task string, progress int) {
	for _, o := range m {
		o.UpdateStatus(task, progress)
	}
}

func (m multiObserver) SetHealthy(healthy bool) {
	for _, o := range m {
		o.SetHealthy(healthy)
	}
}

// Observers fans out reports to every non-nil observer.
func Observers(observers ...Observer) Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}

	return m
}

// CycleReport summarizes one refresh cycle.
type CycleReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Succeeded int
	Failed    int
}

// Scheduler runs refresh jobs sequentially on a fixed cadence.
type Scheduler struct {
	refresher  Refresher
	clock      Clock
	location   *time.Location
	cooldown   time.Duration
	jobTimeout time.Duration
	observer   Observer
	tracer     trace.Tracer
	logger     *zap.Logger
	running    atomic.Bool

	mu   sync.Mutex
	jobs []Job
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLocation sets the timezone in which noon and midnight are computed.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithCooldown sets the pause between jobs.
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.cooldown = d
		}
	}
}

// WithJobTimeout bounds each refresh. Zero leaves refreshes unbounded.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.jobTimeout = d
		}
	}
}

// WithObserver reports progress and health to o.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// New creates a scheduler for jobs. Jobs run in the given order and are re-ranked accordingly.
func New(refresher Refresher, jobs []Job, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	owned := make([]Job, len(jobs))
	copy(owned, jobs)

	for i := range owned {
		owned[i].Rank = i
	}

	s := &Scheduler{
		refresher: refresher,
		clock:     SystemClock{},
		location:  time.Local,
		cooldown:  DefaultCooldown,
		observer:  nopObserver{},
		tracer:    otel.Tracer("github.com/meditationmind/bloombot/internal/worker/refresh"),
		logger:    logger.Named("refresh_scheduler"),
		jobs:      owned,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// String implements fmt.Stringer, naming the service for the supervisor.
func (s *Scheduler) String() string {
	return "refresh-scheduler"
}

// Jobs returns a snapshot of the jobs and their last run.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)

	return jobs
}

// Serve waits for each anchor and runs a cycle, until ctx is done.
// Cycles are anchored to noon and midnight, so consecutive cycles start Cadence apart.
func (s *Scheduler) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	for {
		now := s.clock.Now().In(s.location)
		next := NextAnchor(now)
		wait := next.Sub(now)

		s.logger.Info("Next refresh cycle scheduled",
			zap.Time("at", next),
			zap.Duration("wait", wait))
		s.observer.UpdateStatus("Waiting until "+next.Format("Jan 2 15:04 MST"), 0)

		if err := s.clock.Sleep(ctx, wait); err != nil {
			return err
		}

		report, err := s.RunCycle(ctx)
		if err != nil {
			return err
		}

		s.logger.Info("Refresh cycle completed",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Duration("duration", report.Duration))
	}
}

// RunCycle runs every job once, in rank order, with the cooldown between jobs.
// A failing job is logged and does not stop the cycle. The only error returned is
// ctx.Err() when the context ends during a cooldown or before the cycle starts.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	if err := ctx.Err(); err != nil {
		return CycleReport{}, err
	}

	report := CycleReport{StartedAt: s.clock.Now()}
	jobs := s.Jobs()

	s.logger.Info("Refreshing aggregate views", zap.Int("jobs", len(jobs)))
	s.observer.SetHealthy(true)

	for i, job := range jobs {
		if i > 0 {
			s.observer.UpdateStatus("Cooling down before "+job.Name, percent(i, len(jobs)))

			if err := s.clock.Sleep(ctx, s.cooldown); err != nil {
				report.Duration = s.clock.Now().Sub(report.StartedAt)
				return report, err
			}
		}

		s.observer.UpdateStatus("Refreshing "+job.View.Name(), percent(i, len(jobs)))

		if err := s.runJob(ctx, i); err != nil {
			report.Failed++

			s.observer.SetHealthy(false)

			continue
		}

		report.Succeeded++
	}

	report.Duration = s.clock.Now().Sub(report.StartedAt)
	metrics.RefreshCycles.Inc()
	s.observer.UpdateStatus("Cycle complete", 100)

	return report, nil
}

// runJob refreshes the job at index i and records the outcome on it.
func (s *Scheduler) runJob(ctx context.Context, i int) error {
	s.mu.Lock()
	job := s.jobs[i]
	s.mu.Unlock()

	viewName := job.View.Name()

	if s.jobTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "refresh."+job.Name, trace.WithAttributes(
		attribute.String("view", viewName),
		attribute.Int("rank", job.Rank),
	))
	defer span.End()

	start := s.clock.Now()
	_, err := s.refresher.RefreshAggregateView(ctx, job.View)
	elapsed := s.clock.Now().Sub(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.jobs[i].LastError = err.Error()

		metrics.RefreshFailures.WithLabelValues(viewName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")

		s.logger.Error("Failed to refresh view",
			zap.String("job", job.Name),
			zap.String("view", viewName),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		return fmt.Errorf("job %s: %w", job.Name, err)
	}

	s.jobs[i].LastRunAt = start
	s.jobs[i].LastDuration = elapsed
	s.jobs[i].LastError = ""

	metrics.RefreshDuration.WithLabelValues(viewName).Observe(elapsed.Seconds())
	metrics.RefreshLastSuccess.WithLabelValues(viewName).Set(float64(start.Add(elapsed).Unix()))

	s.logger.Info("Refreshed view",
		zap.String("job", job.Name),
		zap.String("view", viewName),
		zap.Duration("duration", elapsed))

	return nil
}

// Handle controls a scheduler started in the background.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start runs Serve in a new goroutine. The host may ignore the handle.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		h.err = s.Serve(ctx)
	}()

	return h
}

// Done is closed once the scheduler has stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Stop cancels the scheduler and waits for it to return. An in-flight refresh is abandoned.
func (h *Handle) Stop() error {
	h.cancel()
	<-h.done

	if errors.Is(h.err, context.Canceled) {
		return nil
	}

	return h.err
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}

	return done * 100 / total
}
