package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/classgraph/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&ScanJobRecord{},
		&ScanResultRecord{},
		&BatchJobRecord{},
	)
	require.NoError(t, err)

	return db
}

func TestGormJobRepository_GetPendingJobs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		jobs, err := repo.GetPendingJobs(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("WithData", func(t *testing.T) {
		job := &ScanJobRecord{
			JobUUID:  "job-uuid-1",
			Source:   model.SourceKindUpload,
			Status:   model.JobStatusPending,
			UserName: "testuser",
		}
		require.NoError(t, db.Create(job).Error)

		jobs, err := repo.GetPendingJobs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "job-uuid-1", jobs[0].JobUUID)
	})
}

func TestGormJobRepository_GetJobByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		job, err := repo.GetJobByID(ctx, 999)
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("Success", func(t *testing.T) {
		job := &ScanJobRecord{
			JobUUID: "job-uuid-2",
			Source:  model.SourceKindClassloader,
			Status:  model.JobStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		result, err := repo.GetJobByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "job-uuid-2", result.JobUUID)
	})
}

func TestGormJobRepository_GetJobByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		job, err := repo.GetJobByUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("Success", func(t *testing.T) {
		job := &ScanJobRecord{
			JobUUID: "job-uuid-3",
			Source:  model.SourceKindClassloader,
			Status:  model.JobStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		result, err := repo.GetJobByUUID(ctx, "job-uuid-3")
		require.NoError(t, err)
		assert.Equal(t, job.ID, result.ID)
	})
}

func TestGormJobRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 999, model.JobStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("Success", func(t *testing.T) {
		job := &ScanJobRecord{
			JobUUID: "job-uuid-4",
			Status:  model.JobStatusRunning,
		}
		require.NoError(t, db.Create(job).Error)

		err := repo.UpdateStatus(ctx, job.ID, model.JobStatusCompleted)
		require.NoError(t, err)

		var updated ScanJobRecord
		require.NoError(t, db.First(&updated, job.ID).Error)
		assert.Equal(t, model.JobStatusCompleted, updated.Status)
	})
}

func TestGormJobRepository_UpdateStatusWithInfo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	job := &ScanJobRecord{
		JobUUID: "job-uuid-5",
		Status:  model.JobStatusRunning,
	}
	require.NoError(t, db.Create(job).Error)

	err := repo.UpdateStatusWithInfo(ctx, job.ID, model.JobStatusFailed, "parse error")
	require.NoError(t, err)

	var updated ScanJobRecord
	require.NoError(t, db.First(&updated, job.ID).Error)
	assert.Equal(t, model.JobStatusFailed, updated.Status)
	assert.Equal(t, "parse error", updated.StatusInfo)
}

func TestGormJobRepository_LockForScan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		locked, err := repo.LockForScan(ctx, 999)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("Success", func(t *testing.T) {
		job := &ScanJobRecord{
			JobUUID: "job-uuid-6",
			Status:  model.JobStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		locked, err := repo.LockForScan(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, locked)

		var updated ScanJobRecord
		require.NoError(t, db.First(&updated, job.ID).Error)
		assert.Equal(t, model.JobStatusRunning, updated.Status)
	})
}

func TestGormResultRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormResultRepository(db)
	ctx := context.Background()

	t.Run("SaveResult_Success", func(t *testing.T) {
		result := &model.ScanResult{
			JobUUID:    "result-uuid-1",
			ClassCount: 42,
			AnalyzedAt: time.Now(),
		}

		err := repo.SaveResult(ctx, result)
		require.NoError(t, err)
	})

	t.Run("GetResultByJobUUID_Success", func(t *testing.T) {
		result, err := repo.GetResultByJobUUID(ctx, "result-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "result-uuid-1", result.JobUUID)
		assert.Equal(t, 42, result.ClassCount)
	})

	t.Run("GetResultByJobUUID_NotFound", func(t *testing.T) {
		result, err := repo.GetResultByJobUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "result not found")
	})

	t.Run("UpdateResult_Success", func(t *testing.T) {
		result := &model.ScanResult{
			JobUUID:    "result-uuid-1",
			ClassCount: 100,
		}

		err := repo.UpdateResult(ctx, result)
		require.NoError(t, err)
	})

	t.Run("UpdateResult_NotFound", func(t *testing.T) {
		result := &model.ScanResult{JobUUID: "nonexistent"}

		err := repo.UpdateResult(ctx, result)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "result not found")
	})
}

func TestGormBatchJobRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBatchJobRepository(db)
	ctx := context.Background()

	t.Run("GetBatchJob_NotFound", func(t *testing.T) {
		batch, err := repo.GetBatchJob(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, batch)
		assert.Contains(t, err.Error(), "batch job not found")
	})

	t.Run("GetBatchJob_Success", func(t *testing.T) {
		record := &BatchJobRecord{
			BatchUUID: "batch-1",
			SubUUIDs:  JSONField(`["sub-1", "sub-2"]`),
			Status:    model.JobStatusRunning,
		}
		require.NoError(t, db.Create(record).Error)

		result, err := repo.GetBatchJob(ctx, "batch-1")
		require.NoError(t, err)
		assert.Equal(t, "batch-1", result.BatchUUID)
		assert.Len(t, result.SubUUIDs, 2)
	})

	t.Run("UpdateBatchJobStatus_Success", func(t *testing.T) {
		err := repo.UpdateBatchJobStatus(ctx, "batch-1", model.JobStatusCompleted)
		require.NoError(t, err)

		var updated BatchJobRecord
		require.NoError(t, db.First(&updated, "batch_uuid = ?", "batch-1").Error)
		assert.Equal(t, model.JobStatusCompleted, updated.Status)
		assert.NotNil(t, updated.EndTime)
	})

	t.Run("GetIncompleteSubJobCount_Success", func(t *testing.T) {
		batchUUID := "batch-1"
		subJob := &ScanJobRecord{
			JobUUID:   "sub-job-1",
			BatchUUID: &batchUUID,
			Status:    model.JobStatusRunning,
		}
		require.NoError(t, db.Create(subJob).Error)

		count, err := repo.GetIncompleteSubJobCount(ctx, "batch-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
