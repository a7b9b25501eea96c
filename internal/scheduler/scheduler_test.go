package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/internal/scheduler/source"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/utils"
)

// MockJobProcessor is a mock implementation of JobProcessor.
type MockJobProcessor struct {
	mock.Mock
	processedCount int32
}

func (m *MockJobProcessor) Process(ctx context.Context, job *Job) error {
	atomic.AddInt32(&m.processedCount, 1)
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobProcessor) GetProcessedCount() int32 {
	return atomic.LoadInt32(&m.processedCount)
}

func TestScheduler_New(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)

	aggregator := source.NewAggregator(nil, 10, logger)

	t.Run("WithDefaultConfig", func(t *testing.T) {
		s := New(nil, aggregator, processor, nil)
		require.NotNil(t, s)
		assert.Equal(t, 6, s.config.WorkerCount)
		assert.Equal(t, 2*time.Second, s.config.PollInterval)
	})

	t.Run("WithCustomConfig", func(t *testing.T) {
		config := &SchedulerConfig{
			PollInterval:  5 * time.Second,
			WorkerCount:   10,
			PrioritySlots: 3,
			JobBatchSize:  20,
		}
		s := New(config, aggregator, processor, nil)
		require.NotNil(t, s)
		assert.Equal(t, 10, s.config.WorkerCount)
		assert.Equal(t, 5*time.Second, s.config.PollInterval)
	})
}

func TestScheduler_Stats(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
	aggregator := source.NewAggregator(nil, 10, logger)

	config := &SchedulerConfig{
		WorkerCount: 5,
	}

	s := New(config, aggregator, processor, nil)

	stats := s.Stats()
	// Before Start(), workerPool is empty, so ActiveWorkers = WorkerCount - 0 = WorkerCount
	assert.Equal(t, 5, stats.ActiveWorkers)
	assert.Equal(t, 5, stats.TotalWorkers)
	assert.False(t, stats.Running)
}

func TestScheduler_ShouldAcceptJob(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
	aggregator := source.NewAggregator(nil, 10, logger)

	config := &SchedulerConfig{
		WorkerCount:   5,
		PrioritySlots: 2,
		PollInterval:  100 * time.Millisecond,
		JobBatchSize:  5,
	}

	s := New(config, aggregator, processor, logger)

	for i := 0; i < config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	t.Run("HighPriorityJob", func(t *testing.T) {
		job := &Job{Priority: 1}
		assert.True(t, s.shouldAcceptJob(job))
	})

	t.Run("NormalPriorityJob", func(t *testing.T) {
		job := &Job{Priority: 0}
		assert.True(t, s.shouldAcceptJob(job))
	})
}

func TestScheduler_StartStop(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
	aggregator := source.NewAggregator(nil, 10, logger)

	config := &SchedulerConfig{
		PollInterval:  100 * time.Millisecond,
		WorkerCount:   2,
		PrioritySlots: 1,
		JobBatchSize:  5,
	}

	s := New(config, aggregator, processor, logger)

	ctx, cancel := context.WithCancel(context.Background())

	err := s.Start(ctx)
	require.NoError(t, err)

	stats := s.Stats()
	assert.True(t, stats.Running)

	time.Sleep(200 * time.Millisecond)

	cancel()
	s.Stop()

	stats = s.Stats()
	assert.False(t, stats.Running)
}

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	assert.Equal(t, 2*time.Second, config.PollInterval)
	assert.Equal(t, 6, config.WorkerCount)
	assert.Equal(t, 2, config.PrioritySlots)
	assert.Equal(t, 10, config.JobBatchSize)
}

func TestScheduler_ConvertEventToJob(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
	aggregator := source.NewAggregator(nil, 10, logger)

	s := New(nil, aggregator, processor, logger)

	batchUUID := "batch-123"
	scanJob := &model.ScanJob{
		ID:         1,
		JobUUID:    "uuid-123",
		Source:     model.SourceKindUpload,
		UserName:   "testuser",
		BatchUUID:  &batchUUID,
		StorageKey: "bucket-1/uuid-123.jar",
	}

	event := source.NewJobEvent(scanJob, source.SourceTypeDB, "test-source")
	job := s.convertEventToJob(event)

	assert.Equal(t, int64(1), job.ID)
	assert.Equal(t, "uuid-123", job.UUID)
	assert.Equal(t, model.SourceKindUpload, job.Source)
	assert.Equal(t, "testuser", job.UserName)
	assert.NotNil(t, job.BatchUUID)
	assert.Equal(t, "batch-123", *job.BatchUUID)
}

func TestScheduler_ConvertEventToJob_Priority(t *testing.T) {
	processor := &MockJobProcessor{}
	logger := utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
	aggregator := source.NewAggregator(nil, 10, logger)

	s := New(nil, aggregator, processor, logger)

	t.Run("HighPriorityFromEvent", func(t *testing.T) {
		scanJob := &model.ScanJob{
			ID:      1,
			JobUUID: "uuid-123",
			Request: model.JobRequest{HighPriority: true},
		}
		event := source.NewJobEvent(scanJob, source.SourceTypeDB, "test-source")
		job := s.convertEventToJob(event)
		assert.Equal(t, 1, job.Priority)
	})

	t.Run("NormalPriorityFromEvent", func(t *testing.T) {
		scanJob := &model.ScanJob{
			ID:      2,
			JobUUID: "uuid-456",
		}
		event := source.NewJobEvent(scanJob, source.SourceTypeDB, "test-source")
		job := s.convertEventToJob(event)
		assert.Equal(t, 0, job.Priority)
	})
}
