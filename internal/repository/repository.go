// Package repository provides database abstraction for the classgraph scan service.
package repository

import (
	"context"

	"github.com/classgraph/pkg/model"
)

// JobRepository defines the interface for scan job database operations.
type JobRepository interface {
	// GetPendingJobs retrieves jobs that are queued and not yet picked up.
	GetPendingJobs(ctx context.Context, limit int) ([]*model.ScanJob, error)

	// GetJobByID retrieves a job by its numeric ID.
	GetJobByID(ctx context.Context, id int64) (*model.ScanJob, error)

	// GetJobByUUID retrieves a job by its UUID.
	GetJobByUUID(ctx context.Context, uuid string) (*model.ScanJob, error)

	// UpdateStatus updates the status of a job.
	UpdateStatus(ctx context.Context, id int64, status model.JobStatus) error

	// UpdateStatusWithInfo updates the status with additional diagnostic info.
	UpdateStatusWithInfo(ctx context.Context, id int64, status model.JobStatus, info string) error

	// LockForScan attempts to lock a pending job for scanning, preventing concurrent pickup.
	LockForScan(ctx context.Context, id int64) (bool, error)
}

// ResultRepository defines the interface for scan result operations.
type ResultRepository interface {
	// SaveResult saves a scan result to the database.
	SaveResult(ctx context.Context, result *model.ScanResult) error

	// GetResultByJobUUID retrieves the scan result for a job.
	GetResultByJobUUID(ctx context.Context, jobUUID string) (*model.ScanResult, error)

	// UpdateResult updates an existing scan result.
	UpdateResult(ctx context.Context, result *model.ScanResult) error
}

// BatchJobRepository defines the interface for batch scan operations, where a
// single submission fans out into one ScanJob per classpath root.
type BatchJobRepository interface {
	// GetBatchJob retrieves a batch job by its UUID.
	GetBatchJob(ctx context.Context, batchUUID string) (*BatchJob, error)

	// UpdateBatchJobStatus updates the status of a batch job.
	UpdateBatchJobStatus(ctx context.Context, batchUUID string, status model.JobStatus) error

	// GetIncompleteSubJobCount returns the count of sub-jobs not yet completed, failed or cancelled.
	GetIncompleteSubJobCount(ctx context.Context, batchUUID string) (int, error)

	// CheckAndCompleteIfReady marks the batch job completed once every sub-job has finished.
	CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error
}

// BatchJob groups the sub-jobs submitted together for a multi-root classpath scan.
type BatchJob struct {
	BatchUUID       string          `json:"batch_uuid" db:"batch_uuid"`
	SubUUIDs        []string        `json:"sub_uuids" db:"sub_uuids"`
	Status          model.JobStatus `json:"status" db:"status"`
	TotalClassCount int             `json:"total_class_count" db:"total_class_count"`
}
