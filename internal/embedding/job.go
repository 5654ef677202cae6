package embedding

// Status is the lifecycle state reported by the batch provider
type Status string

// Batch job states
const (
	StatusValidating Status = "validating"
	StatusInProgress Status = "in_progress"
	StatusFinalizing Status = "finalizing"
	StatusCancelling Status = "cancelling"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the job will not change state again
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// RequestCounts tracks per-request progress inside a job
type RequestCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobStatus is an immutable snapshot of a batch job, passed by value between polls.
// The JSON layout matches the provider's batch object.
type JobStatus struct {
	ID            string        `json:"id"`
	Status        Status        `json:"status"`
	RequestCounts RequestCounts `json:"request_counts"`
	InputFileID   string        `json:"input_file_id,omitempty"`
	OutputFileID  string        `json:"output_file_id,omitempty"`
	ErrorFileID   string        `json:"error_file_id,omitempty"`
	CreatedAt     int64         `json:"created_at,omitempty"`
	CompletedAt   int64         `json:"completed_at,omitempty"`
	FailedAt      int64         `json:"failed_at,omitempty"`
}
