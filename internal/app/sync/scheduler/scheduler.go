// Package scheduler runs sync jobs from the durable queue one at a time.
//
// The queue lives in Spanner (contracts.SyncJobRepository); this package owns
// the single worker loop, heartbeats of the running job and the sweeper that
// marks jobs whose worker died as stalled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/pkg/clock"
)

// ProgressFunc reports the completion percentage of the running job.
type ProgressFunc func(percent int64)

// Handler is the body of a sync job.
type Handler interface {
	Run(ctx context.Context, job *domain.SyncJob, progress ProgressFunc) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *domain.SyncJob, progress ProgressFunc) error

// Run implements Handler.
func (f HandlerFunc) Run(ctx context.Context, job *domain.SyncJob, progress ProgressFunc) error {
	return f(ctx, job, progress)
}

// Config tunes the worker.
type Config struct {
	// PollInterval bounds how long an idle worker waits before checking the
	// queue again when no local enqueue woke it.
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	// StallTimeout is how old a heartbeat may be before the job counts as stalled.
	StallTimeout time.Duration
	// JobTimeout limits a single run. Zero means no limit.
	JobTimeout  time.Duration
	MaxAttempts int64
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 10 * time.Second
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = 6 * c.HeartbeatInterval
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c
}

// Scheduler is the single consumer of the sync job queue.
type Scheduler struct {
	repo      contracts.SyncJobRepository
	handler   Handler
	clock     clock.Clock
	cfg       Config
	listeners []Listener
	logger    *zap.Logger

	wake    chan struct{}
	running sync.Mutex
}

// New creates a Scheduler. Listeners receive every job event.
func New(repo contracts.SyncJobRepository, handler Handler, clock clock.Clock, cfg Config, logger *zap.Logger, listeners ...Listener) *Scheduler {
	return &Scheduler{
		repo:      repo,
		handler:   handler,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		listeners: listeners,
		logger:    logger.Named("scheduler"),
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue requests a sync run. While a run is already pending no new job is
// created and the pending one is returned with created=false.
func (s *Scheduler) Enqueue(ctx context.Context) (*domain.SyncJob, bool, error) {
	job, created, err := s.repo.Enqueue(ctx, &domain.SyncJob{
		Type:        domain.JobTypeSyncAll,
		Payload:     "{}",
		MaxAttempts: s.cfg.MaxAttempts,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.emit(Event{Type: EventEnqueued, Job: *job})
	}
	s.notify()
	return job, created, nil
}

// Run processes jobs until ctx is done. Only one Run may be active per
// Scheduler; a second concurrent call blocks until the first returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.running.Lock()
	defer s.running.Unlock()

	s.logger.Info("sync worker started", zap.Duration("poll_interval", s.cfg.PollInterval))
	defer s.logger.Info("sync worker stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-timer.C:
		}

		// drain the queue before going idle
		for {
			ran, err := s.RunOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sync worker iteration failed", zap.Error(err))
				break
			}
			if !ran {
				break
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.cfg.PollInterval)
	}
}

// RunOnce claims and runs the oldest pending job. It reports whether a job
// was found. The returned error concerns the queue itself; a failing job is
// reported through the failed event, not here.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	job, err := s.repo.ClaimNext(ctx, s.clock.Now())
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	started := s.clock.Now()
	s.emit(Event{Type: EventActive, Job: *job})

	var progress atomic.Int64
	report := func(percent int64) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		progress.Store(percent)
		s.emit(Event{Type: EventProgress, Job: *job, Progress: percent})
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var hbDone sync.WaitGroup
	hbDone.Add(1)
	go func() {
		defer hbDone.Done()
		s.heartbeat(hbCtx, job.ID, &progress)
	}()

	runErr := s.run(ctx, job, report)

	stopHeartbeat()
	hbDone.Wait()

	finished := s.clock.Now()
	duration := finished.Sub(started)

	if runErr == nil {
		if err := s.repo.Heartbeat(ctx, job.ID, 100, finished); err != nil {
			s.logger.Warn("failed to record final progress", zap.String("job_id", job.ID), zap.Error(err))
		}
		ok, err := s.finish(ctx, job, domain.JobCompleted, "", finished)
		if err != nil || !ok {
			return true, err
		}
		job.Progress = 100
		s.emit(Event{Type: EventCompleted, Job: *job, Progress: 100, Duration: duration})
		return true, nil
	}

	jobErr := &domain.JobError{JobID: job.ID, Err: runErr}
	ok, err := s.finish(ctx, job, domain.JobFailed, runErr.Error(), finished)
	if err != nil || !ok {
		return true, err
	}
	job.Progress = progress.Load()
	s.emit(Event{Type: EventFailed, Job: *job, Progress: job.Progress, Err: jobErr, Duration: duration})

	s.retry(ctx, job)
	return true, nil
}

// Sweep marks active jobs with a heartbeat older than the stall timeout as
// stalled, requeueing those with attempts left. It returns how many jobs were
// marked.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	stale, err := s.repo.ListStale(ctx, now.Add(-s.cfg.StallTimeout))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale jobs: %w", err)
	}

	marked := 0
	for _, job := range stale {
		err := s.repo.Finish(ctx, job.ID, domain.JobStalled, "heartbeat lost", now)
		if errors.Is(err, domain.ErrJobNotActive) {
			// finished between the listing and now
			continue
		}
		if err != nil {
			return marked, fmt.Errorf("failed to mark job %s stalled: %w", job.ID, err)
		}
		marked++
		s.emit(Event{Type: EventStalled, Job: *job, Progress: job.Progress})
		s.retry(ctx, job)
	}
	return marked, nil
}

// RunSweeper calls Sweep periodically until ctx is done.
func (s *Scheduler) RunSweeper(ctx context.Context) error {
	interval := s.cfg.StallTimeout / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("stall sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *domain.SyncJob, report ProgressFunc) (err error) {
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return s.handler.Run(ctx, job, report)
}

func (s *Scheduler) heartbeat(ctx context.Context, jobID string, progress *atomic.Int64) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.repo.Heartbeat(ctx, jobID, progress.Load(), s.clock.Now()); err != nil && ctx.Err() == nil {
				s.logger.Warn("heartbeat failed", zap.String("job_id", jobID), zap.Error(err))
			}
		}
	}
}

// finish records the terminal status. It reports false, with no error, when
// the sweeper already marked the job as stalled.
func (s *Scheduler) finish(ctx context.Context, job *domain.SyncJob, status domain.JobStatus, errMsg string, now time.Time) (bool, error) {
	err := s.repo.Finish(ctx, job.ID, status, errMsg, now)
	if errors.Is(err, domain.ErrJobNotActive) {
		s.logger.Warn("job was no longer active when it finished",
			zap.String("job_id", job.ID), zap.String("status", string(status)))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to finish job %s: %w", job.ID, err)
	}
	job.Status = status
	job.FinishedAt = &now
	job.ErrorMessage = errMsg
	return true, nil
}

func (s *Scheduler) retry(ctx context.Context, job *domain.SyncJob) {
	if !job.CanRetry() {
		return
	}
	if err := s.repo.Requeue(ctx, job.ID); err != nil {
		s.logger.Error("failed to requeue job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	s.logger.Info("job requeued",
		zap.String("job_id", job.ID),
		zap.Int64("attempt", job.Attempts),
		zap.Int64("max_attempts", job.MaxAttempts))
	s.notify()
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) emit(e Event) {
	if e.At.IsZero() {
		e.At = s.clock.Now()
	}
	for _, l := range s.listeners {
		l.OnEvent(e)
	}
}
