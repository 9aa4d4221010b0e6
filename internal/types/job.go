// Package types provides type definitions for structured data used throughout the lead personalization system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a personalization job
type JobStatus string

// Job lifecycle states, in order
const (
	JobPending    JobStatus = "pending"
	JobEnriching  JobStatus = "enriching"
	JobSelecting  JobStatus = "selecting"
	JobAdapting   JobStatus = "adapting"
	JobValidating JobStatus = "validating"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

var jobStatusOrder = map[JobStatus]int{
	JobPending:    0,
	JobEnriching:  1,
	JobSelecting:  2,
	JobAdapting:   3,
	JobValidating: 4,
	JobCompleted:  5,
}

// Terminal reports whether no further transitions are allowed
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition reports whether a job may move from one status to another.
// Transitions only move forward; any non-terminal state may fail.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == JobFailed {
		return true
	}
	fi, ok := jobStatusOrder[from]
	if !ok {
		return false
	}
	ti, ok := jobStatusOrder[to]
	if !ok {
		return false
	}
	return ti == fi+1
}

// PersonalizationRequest holds the lead attributes submitted for one job
type PersonalizationRequest struct {
	Email      string     `json:"email" validate:"required,email"`
	Domain     string     `json:"domain,omitempty" validate:"omitempty,fqdn"`
	Name       string     `json:"name,omitempty"`
	Company    string     `json:"company,omitempty"`
	Persona    Persona    `json:"persona" validate:"required"`
	BuyerStage BuyerStage `json:"buyer_stage" validate:"required"`
	CTA        string     `json:"cta,omitempty"`
}

var requestValidator = validator.New()

// Validate checks required fields and formats
func (r *PersonalizationRequest) Validate() error {
	return requestValidator.Struct(r)
}

// StageTiming records when a stage started and finished
type StageTiming struct {
	Stage     JobStatus `json:"stage"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Duration returns how long the stage ran
func (t StageTiming) Duration() time.Duration {
	if t.EndedAt.IsZero() {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// PersonalizationJob tracks one end-to-end request
type PersonalizationJob struct {
	ID            uuid.UUID              `json:"id"`
	Request       PersonalizationRequest `json:"request"`
	Status        JobStatus              `json:"status"`
	Timings       []StageTiming          `json:"timings"`
	Content       *AdaptedContent        `json:"content,omitempty"`
	FailureKind   string                 `json:"failure_kind,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
