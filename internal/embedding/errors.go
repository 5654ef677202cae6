// Package embedding manages batch embedding jobs against an external provider.
package embedding

import (
	"fmt"
	"time"
)

// ProviderError represents an upload, submission or transport failure.
// A job ID obtained before the failure stays valid for a later retry.
type ProviderError struct {
	Op    string
	JobID string
	Cause error
}

func (e *ProviderError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("embedding provider error: %s (job %s): %v", e.Op, e.JobID, e.Cause)
	}
	return fmt.Sprintf("embedding provider error: %s: %v", e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// JobFailedError is returned when a job ends failed, expired or cancelled
type JobFailedError struct {
	Job JobStatus
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("embedding job %s ended with status %s (%d/%d requests completed, %d failed)",
		e.Job.ID, e.Job.Status, e.Job.RequestCounts.Completed, e.Job.RequestCounts.Total, e.Job.RequestCounts.Failed)
}

// JobTimeoutError is returned when a job does not reach a terminal state in time
type JobTimeoutError struct {
	Timeout time.Duration
	Last    JobStatus
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("embedding job %s still %s after %s", e.Last.ID, e.Last.Status, e.Timeout)
}

// NotReadyError is returned when results are requested before the job completed
type NotReadyError struct {
	JobID  string
	Status Status
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("embedding job %s is not completed (status %s)", e.JobID, e.Status)
}

// EmptyResultError is returned when a completed job yields no usable vectors
type EmptyResultError struct {
	JobID   string
	Message string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("embedding job %s produced no results: %s", e.JobID, e.Message)
}

// PartialResultError describes per-bookmark failures inside a completed job.
// It is logged, never returned: failed bookmarks are excluded from the result.
type PartialResultError struct {
	JobID     string
	Failed    int
	Succeeded int
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("embedding job %s: %d of %d requests failed", e.JobID, e.Failed, e.Failed+e.Succeeded)
}
