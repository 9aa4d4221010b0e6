package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// DefaultListLimit caps job listings when no limit is given
const DefaultListLimit = 50

// JobEvent is one append-only status change
type JobEvent struct {
	JobID      uuid.UUID       `json:"job_id"`
	From       types.JobStatus `json:"from_status"`
	To         types.JobStatus `json:"to_status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// JobFilters holds optional filters for listing jobs
type JobFilters struct {
	Status types.JobStatus
	Domain string
	Limit  int
}

// timingsFromEvents rebuilds per-stage timings from the event history.
// Each event closes the open stage; non-terminal targets open a new one.
func timingsFromEvents(events []JobEvent) []types.StageTiming {
	var timings []types.StageTiming
	for _, e := range events {
		if n := len(timings); n > 0 && timings[n-1].EndedAt.IsZero() {
			timings[n-1].EndedAt = e.OccurredAt
		}
		if !e.To.Terminal() {
			timings = append(timings, types.StageTiming{Stage: e.To, StartedAt: e.OccurredAt})
		}
	}
	return timings
}
