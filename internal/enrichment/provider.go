package enrichment

import (
	"context"
	"strings"
)

// JobState is the provider-side state of an asynchronous lookup
type JobState string

// Provider job states
const (
	StatePending    JobState = "pending"
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// ParseJobState maps provider status strings, including the
// "success" and "error" aliases, onto a JobState.
// Anything unrecognised is treated as still pending.
func ParseJobState(s string) JobState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "success":
		return StateCompleted
	case "failed", "error":
		return StateFailed
	case "processing":
		return StateProcessing
	default:
		return StatePending
	}
}

// JobStatus is one poll result
type JobStatus struct {
	State   JobState
	Data    map[string]any
	Message string
}

// Provider is an asynchronous company lookup service
type Provider interface {
	Submit(ctx context.Context, domain, requester string) (jobID string, err error)
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}
