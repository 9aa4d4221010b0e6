package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// ErrJobNotFound is returned when a ledger has no record of a job
var ErrJobNotFound = errors.New("job not found")

// Ledger records job lifecycle events. It is observational: the pipeline
// logs ledger failures and carries on.
type Ledger interface {
	Create(ctx context.Context, job *types.PersonalizationJob) error
	Transition(ctx context.Context, id uuid.UUID, from, to types.JobStatus, at time.Time) error
	Complete(ctx context.Context, id uuid.UUID, content *types.AdaptedContent, at time.Time) error
	Fail(ctx context.Context, id uuid.UUID, kind, reason string, at time.Time) error
}

// JobReader looks up recorded jobs
type JobReader interface {
	Get(ctx context.Context, id uuid.UUID) (*types.PersonalizationJob, error)
}

// TransitionError is returned for a status change the lifecycle forbids
type TransitionError struct {
	ID   uuid.UUID
	From types.JobStatus
	To   types.JobStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// MemoryLedger is an in-process Ledger and JobReader
type MemoryLedger struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*types.PersonalizationJob
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{jobs: make(map[uuid.UUID]*types.PersonalizationJob)}
}

// Create records a new job
func (l *MemoryLedger) Create(_ context.Context, job *types.PersonalizationJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already recorded", job.ID)
	}
	c := copyJob(job)
	l.jobs[job.ID] = c
	return nil
}

// Transition moves a job forward, closing the current stage timing and opening the next
func (l *MemoryLedger) Transition(_ context.Context, id uuid.UUID, from, to types.JobStatus, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, err := l.advance(id, from, to)
	if err != nil {
		return err
	}
	closeTiming(job, at)
	job.Timings = append(job.Timings, types.StageTiming{Stage: to, StartedAt: at})
	job.UpdatedAt = at
	return nil
}

// Complete marks a job completed with its content
func (l *MemoryLedger) Complete(_ context.Context, id uuid.UUID, content *types.AdaptedContent, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if _, err := l.advance(id, job.Status, types.JobCompleted); err != nil {
		return err
	}
	closeTiming(job, at)
	if content != nil {
		c := *content
		job.Content = &c
	}
	job.UpdatedAt = at
	return nil
}

// Fail marks a job failed
func (l *MemoryLedger) Fail(_ context.Context, id uuid.UUID, kind, reason string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if _, err := l.advance(id, job.Status, types.JobFailed); err != nil {
		return err
	}
	closeTiming(job, at)
	job.FailureKind = kind
	job.FailureReason = reason
	job.UpdatedAt = at
	return nil
}

// Get returns a copy of a recorded job
func (l *MemoryLedger) Get(_ context.Context, id uuid.UUID) (*types.PersonalizationJob, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	job, ok := l.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

// Len returns the number of recorded jobs
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.jobs)
}

func (l *MemoryLedger) advance(id uuid.UUID, from, to types.JobStatus) (*types.PersonalizationJob, error) {
	job, ok := l.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.Status != from || !types.CanTransition(from, to) {
		return nil, &TransitionError{ID: id, From: job.Status, To: to}
	}
	job.Status = to
	return job, nil
}

func closeTiming(job *types.PersonalizationJob, at time.Time) {
	if n := len(job.Timings); n > 0 && job.Timings[n-1].EndedAt.IsZero() {
		job.Timings[n-1].EndedAt = at
	}
}

func copyJob(job *types.PersonalizationJob) *types.PersonalizationJob {
	c := *job
	c.Timings = append([]types.StageTiming(nil), job.Timings...)
	if job.Content != nil {
		content := *job.Content
		c.Content = &content
	}
	return &c
}
