package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classgraph/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements JobRepository using GORM.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// GetPendingJobs retrieves jobs queued and not yet picked up.
func (r *GormJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.ScanJob, error) {
	var records []ScanJobRecord

	err := r.db.WithContext(ctx).
		Where("status = ?", model.JobStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}

	jobs := make([]*model.ScanJob, len(records))
	for i, rec := range records {
		jobs[i] = rec.ToModel()
	}

	return jobs, nil
}

// GetJobByID retrieves a job by its numeric ID.
func (r *GormJobRepository) GetJobByID(ctx context.Context, id int64) (*model.ScanJob, error) {
	var rec ScanJobRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return rec.ToModel(), nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *GormJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.ScanJob, error) {
	var rec ScanJobRecord

	err := r.db.WithContext(ctx).Where("job_uuid = ?", uuid).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return rec.ToModel(), nil
}

// UpdateStatus updates the status of a job.
func (r *GormJobRepository) UpdateStatus(ctx context.Context, id int64, status model.JobStatus) error {
	result := r.db.WithContext(ctx).
		Model(&ScanJobRecord{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status with additional diagnostic info.
func (r *GormJobRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.JobStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&ScanJobRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// LockForScan attempts to lock a pending job for scanning using FOR UPDATE.
func (r *GormJobRepository) LockForScan(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ScanJobRecord

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, model.JobStatusPending).
			First(&rec).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&ScanJobRecord{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     model.JobStatusRunning,
				"begin_time": time.Now(),
			}).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	return true, nil
}

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db *gorm.DB
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB) *GormResultRepository {
	return &GormResultRepository{db: db}
}

// SaveResult saves a scan result to the database.
func (r *GormResultRepository) SaveResult(ctx context.Context, result *model.ScanResult) error {
	record := &ScanResultRecord{
		JobUUID:        result.JobUUID,
		ClassCount:     result.ClassCount,
		ExternalCount:  result.ExternalCount,
		PackageCount:   result.PackageCount,
		ResourceCount:  result.ResourceCount,
		NonFatalErrors: result.NonFatalErrors,
		BundlePath:     result.BundlePath,
		BundleSHA256:   result.BundleSHA256,
		ScanDuration:   result.ScanDuration,
		AnalyzedAt:     result.AnalyzedAt,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	return nil
}

// GetResultByJobUUID retrieves the scan result for a job.
func (r *GormResultRepository) GetResultByJobUUID(ctx context.Context, jobUUID string) (*model.ScanResult, error) {
	var record ScanResultRecord

	err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found for job: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return record.ToModel()
}

// UpdateResult updates an existing scan result.
func (r *GormResultRepository) UpdateResult(ctx context.Context, result *model.ScanResult) error {
	res := r.db.WithContext(ctx).
		Model(&ScanResultRecord{}).
		Where("job_uuid = ?", result.JobUUID).
		Updates(map[string]interface{}{
			"class_count":      result.ClassCount,
			"external_count":   result.ExternalCount,
			"package_count":    result.PackageCount,
			"resource_count":   result.ResourceCount,
			"non_fatal_errors": result.NonFatalErrors,
			"bundle_path":      result.BundlePath,
			"bundle_sha256":    result.BundleSHA256,
			"scan_duration_ms": result.ScanDuration,
			"analyzed_at":      result.AnalyzedAt,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("result not found for job: %s", result.JobUUID)
	}

	return nil
}

// GormBatchJobRepository implements BatchJobRepository using GORM.
type GormBatchJobRepository struct {
	db *gorm.DB
}

// NewGormBatchJobRepository creates a new GormBatchJobRepository.
func NewGormBatchJobRepository(db *gorm.DB) *GormBatchJobRepository {
	return &GormBatchJobRepository{db: db}
}

// GetBatchJob retrieves a batch job by its UUID.
func (r *GormBatchJobRepository) GetBatchJob(ctx context.Context, batchUUID string) (*BatchJob, error) {
	var record BatchJobRecord

	err := r.db.WithContext(ctx).Where("batch_uuid = ?", batchUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch job not found: %s", batchUUID)
		}
		return nil, fmt.Errorf("failed to get batch job: %w", err)
	}

	return record.ToBatchJob()
}

// UpdateBatchJobStatus updates the status of a batch job.
func (r *GormBatchJobRepository) UpdateBatchJobStatus(ctx context.Context, batchUUID string, status model.JobStatus) error {
	updates := map[string]interface{}{
		"status": status,
	}

	if status == model.JobStatusCompleted {
		updates["end_time"] = time.Now()
	}

	return r.db.WithContext(ctx).
		Model(&BatchJobRecord{}).
		Where("batch_uuid = ?", batchUUID).
		Updates(updates).Error
}

// GetIncompleteSubJobCount returns the count of sub-jobs not yet completed, failed or cancelled.
func (r *GormBatchJobRepository) GetIncompleteSubJobCount(ctx context.Context, batchUUID string) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&ScanJobRecord{}).
		Where("batch_uuid = ? AND status NOT IN ?", batchUUID, []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled}).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete sub-jobs: %w", err)
	}

	return int(count), nil
}

// CheckAndCompleteIfReady marks the batch job completed once every sub-job has finished,
// aggregating the total class count across all completed sub-jobs.
func (r *GormBatchJobRepository) CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error {
	count, err := r.GetIncompleteSubJobCount(ctx, batchUUID)
	if err != nil {
		return err
	}

	if count > 0 {
		return r.UpdateBatchJobStatus(ctx, batchUUID, model.JobStatusRunning)
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Table("scan_result").
		Joins("JOIN scan_job ON scan_job.job_uuid = scan_result.job_uuid").
		Where("scan_job.batch_uuid = ?", batchUUID).
		Select("COALESCE(SUM(scan_result.class_count), 0)").
		Scan(&total).Error; err != nil {
		return fmt.Errorf("failed to aggregate batch class count: %w", err)
	}

	return r.db.WithContext(ctx).
		Model(&BatchJobRecord{}).
		Where("batch_uuid = ?", batchUUID).
		Updates(map[string]interface{}{
			"status":            model.JobStatusCompleted,
			"total_class_count": int(total),
			"end_time":          time.Now(),
		}).Error
}
