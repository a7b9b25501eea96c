// Package scheduler provides scan job scheduling and worker pool management.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/classgraph/internal/scheduler/source"
	"github.com/classgraph/pkg/config"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/utils"
)

// Job is a scan job queued for processing by the worker pool.
type Job struct {
	ID         int64
	UUID       string
	Source     model.SourceKind
	UserName   string
	BatchUUID  *string
	StorageKey string
	Request    model.JobRequest
	Priority   int // Higher value = higher priority
}

// JobProcessor defines the interface for processing scan jobs.
type JobProcessor interface {
	// Process processes a single scan job.
	Process(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	PollInterval  time.Duration // How often to poll for new jobs
	WorkerCount   int           // Number of concurrent workers
	PrioritySlots int           // Reserved slots for high priority jobs
	JobBatchSize  int           // Max jobs to fetch per poll
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   6,
		PrioritySlots: 2,
		JobBatchSize:  10,
	}
}

// FromConfig creates scheduler config from application config.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		PrioritySlots: cfg.PrioritySlots,
		JobBatchSize:  cfg.TaskBatchSize,
	}
}

// Scheduler manages scan job scheduling and the worker pool.
type Scheduler struct {
	config    *SchedulerConfig
	processor JobProcessor
	logger    utils.Logger

	// Source-based job fetching (Strategy Pattern)
	aggregator *source.Aggregator

	workerPool chan struct{} // Semaphore for worker count
	jobQueue   chan *Job     // Job queue
	wg         sync.WaitGroup

	running bool
	stopCh  chan struct{}
}

// New creates a new Scheduler with a source aggregator.
func New(config *SchedulerConfig, aggregator *source.Aggregator, processor JobProcessor, logger utils.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:     config,
		aggregator: aggregator,
		processor:  processor,
		logger:     logger,
		workerPool: make(chan struct{}, config.WorkerCount),
		jobQueue:   make(chan *Job, config.JobBatchSize*2),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler with %d workers", s.config.WorkerCount)

	s.running = true

	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	if err := s.aggregator.Start(ctx); err != nil {
		return err
	}

	go s.sourceEventLoop(ctx)
	go s.processLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	s.running = false
	close(s.stopCh)

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// shouldAcceptJob determines if a job should be accepted based on priority.
func (s *Scheduler) shouldAcceptJob(job *Job) bool {
	activeWorkers := s.config.WorkerCount - len(s.workerPool)
	reservedSlots := s.config.WorkerCount - s.config.PrioritySlots

	if job.Priority > 0 {
		return activeWorkers < s.config.WorkerCount
	}

	return activeWorkers < reservedSlots
}

// processLoop processes queued jobs.
func (s *Scheduler) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case job := <-s.jobQueue:
			select {
			case <-s.workerPool:
				s.wg.Add(1)
				go s.processJob(ctx, job)
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

// processJob processes a single scan job.
func (s *Scheduler) processJob(ctx context.Context, job *Job) {
	defer func() {
		s.workerPool <- struct{}{}
		s.wg.Done()
	}()

	s.logger.Info("Processing job %d (UUID: %s, source: %s)", job.ID, job.UUID, job.Source)

	startTime := time.Now()
	err := s.processor.Process(ctx, job)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Job %d failed after %v: %v", job.ID, duration, err)
		return
	}

	s.logger.Info("Job %d completed successfully in %v", job.ID, duration)
}

// sourceEventLoop receives job events from the aggregator and queues them for processing.
func (s *Scheduler) sourceEventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.aggregator.Tasks():
			if !ok {
				s.logger.Info("Aggregator channel closed")
				return
			}

			job := s.convertEventToJob(event)

			if !s.shouldAcceptJob(job) {
				s.logger.Debug("Skipping job %d due to priority constraints", job.ID)
				continue
			}

			select {
			case s.jobQueue <- job:
				s.logger.Info("Queued job %d (UUID: %s) from source %s/%s",
					job.ID, job.UUID, event.SourceType, event.SourceName)
			default:
				s.logger.Warn("Job queue full, nacking job %d", job.ID)
				if err := s.aggregator.Nack(ctx, event, "job queue full"); err != nil {
					s.logger.Error("Failed to nack event: %v", err)
				}
			}
		}
	}
}

// convertEventToJob converts a source.JobEvent to a scheduler.Job.
func (s *Scheduler) convertEventToJob(event *source.JobEvent) *Job {
	j := event.Job
	return &Job{
		ID:         j.ID,
		UUID:       j.JobUUID,
		Source:     j.Source,
		UserName:   j.UserName,
		BatchUUID:  j.BatchUUID,
		StorageKey: j.StorageKey,
		Request:    j.Request,
		Priority:   event.Priority,
	}
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedJobs:    len(s.jobQueue),
		Running:       s.running,
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueuedJobs    int  `json:"queued_jobs"`
	Running       bool `json:"running"`
}
