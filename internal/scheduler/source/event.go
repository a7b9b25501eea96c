package source

import (
	"github.com/classgraph/pkg/model"
)

// JobEvent represents a unified scan job event from any source.
type JobEvent struct {
	// ID is the unique identifier for this event.
	ID string

	// Job is the actual job data.
	Job *model.ScanJob

	// SourceType indicates which type of source this event came from.
	SourceType SourceType

	// SourceName is the name of the source instance.
	SourceName string

	// Priority indicates the job priority (higher value = higher priority).
	Priority int

	// Metadata holds source-specific metadata.
	Metadata map[string]string

	// AckToken is used for acknowledgment (e.g., Kafka offset, HTTP request context).
	AckToken interface{}
}

// NewJobEvent creates a new JobEvent from a model.ScanJob.
func NewJobEvent(job *model.ScanJob, sourceType SourceType, sourceName string) *JobEvent {
	priority := 0
	if job.IsHighPriority() {
		priority = 1
	}

	return &JobEvent{
		ID:         job.JobUUID,
		Job:        job,
		SourceType: sourceType,
		SourceName: sourceName,
		Priority:   priority,
		Metadata:   make(map[string]string),
	}
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *JobEvent) WithMetadata(key, value string) *JobEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithAckToken sets the ack token and returns the event for chaining.
func (e *JobEvent) WithAckToken(token interface{}) *JobEvent {
	e.AckToken = token
	return e
}

// GetMetadata retrieves a metadata value by key.
func (e *JobEvent) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
