package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/classgraph/pkg/model"
)

// ScanJobRecord represents the scan_job table.
type ScanJobRecord struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID      string          `gorm:"column:job_uuid;type:varchar(64);uniqueIndex"`
	Source       model.SourceKind `gorm:"column:source"`
	Status       model.JobStatus `gorm:"column:status"`
	StatusInfo   string          `gorm:"column:status_info;type:text"`
	ResultBundle string          `gorm:"column:result_bundle;type:varchar(512)"`
	UserName     string          `gorm:"column:user_name;type:varchar(128)"`
	BatchUUID    *string         `gorm:"column:batch_uuid;type:varchar(64);index"`
	StorageKey   string          `gorm:"column:storage_key;type:varchar(512)"`
	Request      JSONField       `gorm:"column:request;type:json"`
	CreateTime   time.Time       `gorm:"column:create_time;autoCreateTime"`
	BeginTime    *time.Time      `gorm:"column:begin_time"`
	EndTime      *time.Time      `gorm:"column:end_time"`
}

// TableName returns the table name for ScanJobRecord.
func (ScanJobRecord) TableName() string {
	return "scan_job"
}

// ToModel converts ScanJobRecord to model.ScanJob.
func (r *ScanJobRecord) ToModel() *model.ScanJob {
	job := &model.ScanJob{
		ID:           r.ID,
		JobUUID:      r.JobUUID,
		Source:       r.Source,
		Status:       r.Status,
		StatusInfo:   r.StatusInfo,
		ResultBundle: r.ResultBundle,
		UserName:     r.UserName,
		BatchUUID:    r.BatchUUID,
		StorageKey:   r.StorageKey,
		CreateTime:   r.CreateTime,
		BeginTime:    r.BeginTime,
		EndTime:      r.EndTime,
	}

	if r.Request != nil {
		_ = json.Unmarshal(r.Request, &job.Request)
	}

	return job
}

// ScanResultRecord represents the scan_result table.
type ScanResultRecord struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID        string    `gorm:"column:job_uuid;type:varchar(64);uniqueIndex"`
	ClassCount     int       `gorm:"column:class_count"`
	ExternalCount  int       `gorm:"column:external_count"`
	PackageCount   int       `gorm:"column:package_count"`
	ResourceCount  int       `gorm:"column:resource_count"`
	NonFatalErrors int       `gorm:"column:non_fatal_errors"`
	BundlePath     string    `gorm:"column:bundle_path;type:varchar(512)"`
	BundleSHA256   string    `gorm:"column:bundle_sha256;type:varchar(64)"`
	ScanDuration   int64     `gorm:"column:scan_duration_ms"`
	AnalyzedAt     time.Time `gorm:"column:analyzed_at"`
}

// TableName returns the table name for ScanResultRecord.
func (ScanResultRecord) TableName() string {
	return "scan_result"
}

// ToModel converts ScanResultRecord to model.ScanResult.
func (r *ScanResultRecord) ToModel() (*model.ScanResult, error) {
	return &model.ScanResult{
		JobUUID:        r.JobUUID,
		ClassCount:     r.ClassCount,
		ExternalCount:  r.ExternalCount,
		PackageCount:   r.PackageCount,
		ResourceCount:  r.ResourceCount,
		NonFatalErrors: r.NonFatalErrors,
		BundlePath:     r.BundlePath,
		BundleSHA256:   r.BundleSHA256,
		ScanDuration:   r.ScanDuration,
		AnalyzedAt:     r.AnalyzedAt,
	}, nil
}

// BatchJobRecord represents the batch_job table, grouping the sub-jobs of a
// multi-root classpath scan submitted in one request.
type BatchJobRecord struct {
	BatchUUID       string    `gorm:"column:batch_uuid;type:varchar(64);primaryKey"`
	SubUUIDs        JSONField `gorm:"column:sub_uuids;type:json"`
	Status          model.JobStatus `gorm:"column:status"`
	TotalClassCount int       `gorm:"column:total_class_count"`
	EndTime         *time.Time `gorm:"column:end_time"`
}

// TableName returns the table name for BatchJobRecord.
func (BatchJobRecord) TableName() string {
	return "batch_job"
}

// ToBatchJob converts BatchJobRecord to BatchJob.
func (r *BatchJobRecord) ToBatchJob() (*BatchJob, error) {
	batch := &BatchJob{
		BatchUUID:       r.BatchUUID,
		Status:          r.Status,
		TotalClassCount: r.TotalClassCount,
	}

	if r.SubUUIDs != nil {
		if err := json.Unmarshal(r.SubUUIDs, &batch.SubUUIDs); err != nil {
			return nil, err
		}
	}

	return batch, nil
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
