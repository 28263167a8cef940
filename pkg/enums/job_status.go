package enums

import "fmt"

// JobStatus maps to the email_job_status enum in Postgres.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSending   JobStatus = "sending"
	JobStatusSent      JobStatus = "sent"
	JobStatusFailed    JobStatus = "failed"
	JobStatusSkipped   JobStatus = "skipped"
	JobStatusCancelled JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusSending,
	JobStatusSent,
	JobStatusFailed,
	JobStatusSkipped,
	JobStatusCancelled,
}

// IsValid checks whether the given status matches the canonical enum.
func (s JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transition occurs from s.
// A failed job is terminal only once its attempts hit the ceiling; callers
// that hold the job row decide that with attempts < maxAttempts.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSent, JobStatusSkipped, JobStatusCancelled:
		return true
	}
	return false
}

// ParseJobStatus converts raw strings into JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
