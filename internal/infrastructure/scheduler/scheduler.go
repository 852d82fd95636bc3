package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobNotFound         = errors.New("job not found")
	// ErrInvalidConfig covers a non-positive interval or timeout
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// JobStatus represents the outcome of a job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of background work run on a fixed interval
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobConfig holds the schedule of one job
type JobConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	// RunOnStart runs the job once immediately instead of waiting a full interval
	RunOnStart bool
}

// JobState is the last known state of a registered job
type JobState struct {
	Name        string
	Status      JobStatus
	Error       string
	Runs        int
	LastStarted *time.Time
	LastEnded   *time.Time
}

type registeredJob struct {
	job    Job
	config JobConfig

	mu    sync.Mutex
	state JobState
}

// Scheduler runs registered jobs on their intervals. A job never overlaps
// with itself; a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	logger *zap.Logger
	jobs   map[string]*registeredJob
	order  []string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	running   map[string]bool
}

// NewScheduler creates a scheduler with no jobs
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:  logger.Named("scheduler"),
		jobs:    make(map[string]*registeredJob),
		running: make(map[string]bool),
	}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(job Job, config JobConfig) error {
	if config.Interval <= 0 || config.Timeout <= 0 {
		return fmt.Errorf("%w: job %s needs a positive interval and timeout", ErrInvalidConfig, job.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name()]; !exists {
		s.order = append(s.order, job.Name())
	}
	s.jobs[job.Name()] = &registeredJob{
		job:    job,
		config: config,
		state:  JobState{Name: job.Name(), Status: JobStatusPending},
	}
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, name := range s.order {
		s.wg.Add(1)
		go s.loop(ctx, s.jobs[name])
	}
	s.mu.Unlock()

	s.logger.Info("Scheduler started", zap.Strings("jobs", s.order))
	return nil
}

// Stop cancels every loop and waits for in-flight runs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerNow runs a job once, synchronously, outside its schedule
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	rj, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, rj)
}

// State returns the last known state of a job
func (s *Scheduler) State(name string) (JobState, bool) {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobState{}, false
	}
	rj.mu.Lock()
	defer rj.mu.Unlock()
	return rj.state, true
}

func (s *Scheduler) loop(ctx context.Context, rj *registeredJob) {
	defer s.wg.Done()

	if rj.config.RunOnStart {
		_ = s.execute(ctx, rj)
	}

	ticker := time.NewTicker(rj.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", rj.job.Name()))
			return
		case <-ticker.C:
			_ = s.execute(ctx, rj)
		}
	}
}

// execute runs the job with its timeout, skipping if a run is in progress
func (s *Scheduler) execute(ctx context.Context, rj *registeredJob) error {
	name := rj.job.Name()

	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		s.logger.Debug("Job still running, skipping tick", zap.String("job", name))
		return nil
	}
	s.running[name] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	started := time.Now()
	rj.mu.Lock()
	rj.state.Status = JobStatusRunning
	rj.state.LastStarted = &started
	rj.state.Error = ""
	rj.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, rj.config.Timeout)
	defer cancel()

	err := s.runSafely(jobCtx, rj.job)
	ended := time.Now()

	rj.mu.Lock()
	rj.state.Runs++
	rj.state.LastEnded = &ended
	if err != nil {
		rj.state.Status = JobStatusFailed
		rj.state.Error = err.Error()
	} else {
		rj.state.Status = JobStatusSuccess
	}
	rj.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", name),
			zap.Duration("duration", ended.Sub(started)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Job completed",
		zap.String("job", name),
		zap.Duration("duration", ended.Sub(started)),
	)
	return nil
}

func (s *Scheduler) runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}
