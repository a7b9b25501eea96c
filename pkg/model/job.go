// Package model defines the core data structures used throughout the application.
package model

import (
	"encoding/json"
	"time"
)

// SourceKind represents where a scan job's classpath came from.
type SourceKind int

const (
	SourceKindOverride      SourceKind = 0 // explicit classpath string
	SourceKindClassloader   SourceKind = 1 // classloader provider tree
	SourceKindUpload        SourceKind = 2 // archive uploaded for this job
	SourceKindBatchSubJob   SourceKind = 3 // one root of a batch scan
)

// String returns the string representation of SourceKind.
func (k SourceKind) String() string {
	switch k {
	case SourceKindOverride:
		return "override"
	case SourceKindClassloader:
		return "classloader"
	case SourceKindUpload:
		return "upload"
	case SourceKindBatchSubJob:
		return "batch_sub_job"
	default:
		return "unknown"
	}
}

// JobStatus represents the lifecycle status of a scan job.
type JobStatus int

const (
	JobStatusPending   JobStatus = 0 // queued, not yet picked up
	JobStatusRunning   JobStatus = 1 // resolving/parsing/linking
	JobStatusCompleted JobStatus = 2 // graph frozen, result available
	JobStatusFailed    JobStatus = 3 // fatal error aborted the scan
	JobStatusCancelled JobStatus = 4 // cooperatively cancelled mid-flight
)

// String returns the string representation of JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	case JobStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ScanJob represents one classpath scan: its source, its scan-spec
// parameters, and its current lifecycle status.
type ScanJob struct {
	ID           int64          `json:"id" db:"id"`
	JobUUID      string         `json:"uuid" db:"uuid"`
	Source       SourceKind     `json:"source" db:"source"`
	Status       JobStatus      `json:"status" db:"status"`
	StatusInfo   string         `json:"status_info" db:"status_info"`
	ResultBundle string         `json:"result_bundle" db:"result_bundle"`
	UserName     string         `json:"user_name" db:"user_name"`
	BatchUUID    *string        `json:"batch_uuid" db:"batch_uuid"`
	StorageKey   string         `json:"storage_key" db:"storage_key"`
	Request      JobRequest     `json:"request" db:"request"`
	CreateTime   time.Time      `json:"create_time" db:"create_time"`
	BeginTime    *time.Time     `json:"begin_time" db:"begin_time"`
	EndTime      *time.Time     `json:"end_time" db:"end_time"`
}

// JobRequest holds the parameters a scan job was submitted with: the
// classpath override or upload reference, plus scan-spec overrides layered
// on top of the service's default ScanConfig.
type JobRequest struct {
	ClasspathOverride string   `json:"classpath_override,omitempty"`
	WhitelistPackages []string `json:"whitelist_packages,omitempty"`
	BlacklistPackages []string `json:"blacklist_packages,omitempty"`
	EnableFieldInfo   bool     `json:"enable_field_info,omitempty"`
	EnableMethodInfo  bool     `json:"enable_method_info,omitempty"`
	HighPriority      bool     `json:"high_priority,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for JobRequest.
func (rp *JobRequest) UnmarshalJSON(data []byte) error {
	type Alias JobRequest
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(rp),
	}
	return json.Unmarshal(data, aux)
}

// IsHighPriority returns true if the job should jump the scheduler queue.
func (j *ScanJob) IsHighPriority() bool {
	return j.Request.HighPriority
}

// IsBatchSubJob returns true if the job belongs to a batch scan.
func (j *ScanJob) IsBatchSubJob() bool {
	return j.BatchUUID != nil && *j.BatchUUID != ""
}

// NewScanJob creates a new pending ScanJob.
func NewScanJob(id int64, jobUUID string, source SourceKind) *ScanJob {
	return &ScanJob{
		ID:         id,
		JobUUID:    jobUUID,
		Source:     source,
		Status:     JobStatusPending,
		CreateTime: time.Now(),
	}
}
