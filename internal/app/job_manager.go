package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/internal/events"
	"github.com/yourusername/mediafetch/pkg/logger"
)

// BatchRunner runs one batch of references
type BatchRunner interface {
	Run(ctx context.Context, refs []string, sink domain.EventSink) (*domain.BatchResult, error)
}

// Notifier is told when a detached job finishes
type Notifier interface {
	NotifyJobFinished(job *domain.Job)
}

// SubscriberCounter reports how many observers are connected
type SubscriberCounter interface {
	Count() int
}

// JobManagerOptions configures optional JobManager behaviour
type JobManagerOptions struct {
	Notifier Notifier
	// Subscribers, when set, makes detached submissions fail with
	// ErrNoSubscribers while nobody is observing.
	Subscribers SubscriberCounter
	MultiLogger *logger.MultiLogger
}

type jobHandle struct {
	job       *domain.Job
	cancel    context.CancelFunc
	cancelled bool
	done      chan struct{}
}

// JobManager runs batches as jobs, either awaited by the caller or detached
type JobManager struct {
	runner    BatchRunner
	sink      domain.EventSink
	opts      JobManagerOptions
	logger    *zap.Logger
	mu        sync.RWMutex
	jobs      map[string]*jobHandle
	order     []string
	baseCtx   context.Context
	cancelAll context.CancelFunc
	stopped   bool
	workerWg  sync.WaitGroup
}

// NewJobManager creates a new job manager. Events of every job go to sink.
func NewJobManager(runner BatchRunner, sink domain.EventSink, opts JobManagerOptions, log *zap.Logger) *JobManager {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		runner:    runner,
		sink:      sink,
		opts:      opts,
		logger:    log,
		jobs:      make(map[string]*jobHandle),
		baseCtx:   ctx,
		cancelAll: cancel,
	}
}

// Submit starts a job for the given references. In await mode it blocks until
// the job finishes or ctx is done; ctx ending never cancels the job itself.
// In detach mode it returns the running job immediately.
func (jm *JobManager) Submit(ctx context.Context, references []string, mode domain.InvocationMode) (*domain.Job, error) {
	if !domain.ValidateMode(mode) {
		return nil, fmt.Errorf("%w: invalid mode %q", domain.ErrInvalidPayload, mode)
	}
	if len(references) == 0 {
		return nil, domain.ErrNoReferences
	}

	// Fail fast, before any I/O and without creating a job
	valid, _, verr := domain.ValidateReferences(references)
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoValidReferences, verr)
	}

	if mode == domain.ModeDetach && jm.opts.Subscribers != nil && jm.opts.Subscribers.Count() == 0 {
		return nil, domain.ErrNoSubscribers
	}

	jm.mu.Lock()
	if jm.stopped {
		jm.mu.Unlock()
		return nil, domain.ErrManagerStopped
	}
	job := domain.NewJob(references, mode)
	jobCtx, cancel := context.WithCancel(jm.baseCtx)
	h := &jobHandle{job: job, cancel: cancel, done: make(chan struct{})}
	jm.jobs[job.ID] = h
	jm.order = append(jm.order, job.ID)
	jm.workerWg.Add(1)
	jm.mu.Unlock()

	jm.logJobEvent("job_submitted",
		zap.String("job_id", job.ID),
		zap.String("mode", string(mode)),
		zap.Int("references", len(references)))

	go jm.run(jobCtx, h)

	if mode == domain.ModeDetach {
		return jm.snapshot(h), nil
	}

	select {
	case <-h.done:
		return jm.snapshot(h), nil
	case <-ctx.Done():
		return jm.snapshot(h), ctx.Err()
	}
}

func (jm *JobManager) run(ctx context.Context, h *jobHandle) {
	defer jm.workerWg.Done()
	defer close(h.done)
	defer h.cancel()

	job := h.job
	sinks := []domain.EventSink{events.WithJobID(jm.sink, job.ID)}
	if jm.opts.MultiLogger != nil {
		sinks = append(sinks, events.WithJobID(events.LogSink(jm.opts.MultiLogger.Fetch()), job.ID))
	}

	result, err := jm.runner.Run(ctx, job.References, events.Tee(sinks...))

	jm.mu.Lock()
	switch {
	case h.cancelled:
		job.MarkCancelled(result)
	case err != nil:
		job.MarkFailed(result, err)
	default:
		job.MarkCompleted(result)
	}
	final := *job
	jm.mu.Unlock()

	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("status", string(final.Status)),
	}
	if result != nil {
		fields = append(fields,
			zap.Int("completed", result.Completed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		if jm.opts.MultiLogger != nil {
			jm.opts.MultiLogger.LogAppError("Batch failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	jm.logJobEvent("job_finished", fields...)

	if final.Mode == domain.ModeDetach && jm.opts.Notifier != nil {
		jm.opts.Notifier.NotifyJobFinished(&final)
	}
}

// Get returns a snapshot of a job
func (jm *JobManager) Get(id string) (*domain.Job, error) {
	jm.mu.RLock()
	h, ok := jm.jobs[id]
	jm.mu.RUnlock()
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return jm.snapshot(h), nil
}

// List returns snapshots of every job, oldest first
func (jm *JobManager) List() []*domain.Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(jm.order))
	for _, id := range jm.order {
		j := *jm.jobs[id].job
		jobs = append(jobs, &j)
	}
	return jobs
}

// Cancel requests cancellation of a running job. Cancelling a finished job is a no-op.
func (jm *JobManager) Cancel(id string) (*domain.Job, error) {
	jm.mu.Lock()
	h, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return nil, domain.ErrJobNotFound
	}
	if !h.job.IsTerminal() {
		h.cancelled = true
		h.cancel()
	}
	jm.mu.Unlock()

	jm.logJobEvent("job_cancel_requested", zap.String("job_id", id))
	return jm.snapshot(h), nil
}

// Wait blocks until the job finishes or ctx is done
func (jm *JobManager) Wait(ctx context.Context, id string) (*domain.Job, error) {
	jm.mu.RLock()
	h, ok := jm.jobs[id]
	jm.mu.RUnlock()
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	select {
	case <-h.done:
		return jm.snapshot(h), nil
	case <-ctx.Done():
		return jm.snapshot(h), ctx.Err()
	}
}

// Stop cancels all running jobs and waits for them to finish
func (jm *JobManager) Stop() {
	jm.mu.Lock()
	if jm.stopped {
		jm.mu.Unlock()
		return
	}
	jm.stopped = true
	for _, h := range jm.jobs {
		if !h.job.IsTerminal() {
			h.cancelled = true
		}
	}
	jm.mu.Unlock()

	jm.cancelAll()
	jm.workerWg.Wait()
	jm.logJobEvent("job_manager_stopped")
}

func (jm *JobManager) snapshot(h *jobHandle) *domain.Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	j := *h.job
	return &j
}

func (jm *JobManager) logJobEvent(event string, fields ...zap.Field) {
	if jm.opts.MultiLogger != nil {
		jm.opts.MultiLogger.LogJobEvent(event, fields...)
	}
	jm.logger.Info(event, fields...)
}

// IsAccepting reports whether Submit still accepts jobs
func (jm *JobManager) IsAccepting() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return !jm.stopped
}

// ActiveCount returns the number of running jobs
func (jm *JobManager) ActiveCount() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	n := 0
	for _, h := range jm.jobs {
		if !h.job.IsTerminal() {
			n++
		}
	}
	return n
}
