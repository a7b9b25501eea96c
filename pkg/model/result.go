package model

import "time"

// ScanResult is the persisted summary of a completed scan job: enough to
// answer "how big was this graph" without reloading the frozen class graph
// itself, plus a pointer to where the full diagnostics bundle was archived.
type ScanResult struct {
	JobUUID        string    `json:"job_uuid"`
	ClassCount     int       `json:"class_count"`
	ExternalCount  int       `json:"external_count"`
	PackageCount   int       `json:"package_count"`
	ResourceCount  int       `json:"resource_count"`
	NonFatalErrors int       `json:"non_fatal_errors"`
	BundlePath     string    `json:"bundle_path"`
	BundleSHA256   string    `json:"bundle_sha256"`
	ScanDuration   int64     `json:"scan_duration_ms"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// ScanRequest describes a scan job ready to be dispatched to a Scanner.
// It is the persisted/queued form; internal/scan.Request is the in-process
// counterpart the scheduler builds from it.
type ScanRequest struct {
	JobID             int64
	JobUUID           string
	ClasspathOverride string
	UserName          string
	BatchUUID         *string
	StorageKey        string
}

// ScanResponse is what the scheduler hands back to a caller polling for a
// job's outcome.
type ScanResponse struct {
	JobUUID    string    `json:"job_uuid"`
	Status     JobStatus `json:"status"`
	ClassCount int       `json:"class_count"`
	BundlePath string    `json:"bundle_path,omitempty"`
	Error      string    `json:"error,omitempty"`
}
