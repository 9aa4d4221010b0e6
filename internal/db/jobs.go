package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/lead-personalizer/internal/pipeline"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// ErrDuplicateJob is returned when a job id is already recorded
var ErrDuplicateJob = errors.New("job already recorded")

const uniqueViolation = "23505"

// psql builds statements with PostgreSQL $n placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const jobColumns = `id, email, domain, persona, buyer_stage, cta, status, content,
	failure_kind, failure_reason, created_at, updated_at`

// JobLedger is a pipeline.Ledger and pipeline.JobReader backed by PostgreSQL.
// Status lives on personalization_jobs; every change also appends a job_events row.
type JobLedger struct {
	db *DB
}

var (
	_ pipeline.Ledger    = (*JobLedger)(nil)
	_ pipeline.JobReader = (*JobLedger)(nil)
)

// NewJobLedger creates a ledger on db
func NewJobLedger(db *DB) *JobLedger {
	return &JobLedger{db: db}
}

// Create records a new job
func (l *JobLedger) Create(ctx context.Context, job *types.PersonalizationJob) error {
	r := job.Request
	_, err := l.db.conn.ExecContext(ctx,
		`INSERT INTO personalization_jobs (id, email, domain, persona, buyer_stage, cta, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, r.Email, r.Domain, string(r.Persona), string(r.BuyerStage), r.CTA,
		string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Transition moves a job from one stage to the next
func (l *JobLedger) Transition(ctx context.Context, id uuid.UUID, from, to types.JobStatus, at time.Time) error {
	return l.advance(ctx, id, from, to, at, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE personalization_jobs SET status = $1, updated_at = $2 WHERE id = $3`,
			string(to), at, id,
		)
		return err
	})
}

// Complete marks a validated job completed with its content
func (l *JobLedger) Complete(ctx context.Context, id uuid.UUID, content *types.AdaptedContent, at time.Time) error {
	var contentJSON []byte
	if content != nil {
		var err error
		contentJSON, err = json.Marshal(content)
		if err != nil {
			return fmt.Errorf("failed to marshal content: %w", err)
		}
	}
	return l.advance(ctx, id, "", types.JobCompleted, at, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE personalization_jobs SET status = $1, content = $2, updated_at = $3 WHERE id = $4`,
			string(types.JobCompleted), contentJSON, at, id,
		)
		return err
	})
}

// Fail marks a job failed
func (l *JobLedger) Fail(ctx context.Context, id uuid.UUID, kind, reason string, at time.Time) error {
	return l.advance(ctx, id, "", types.JobFailed, at, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE personalization_jobs SET status = $1, failure_kind = $2, failure_reason = $3, updated_at = $4 WHERE id = $5`,
			string(types.JobFailed), kind, reason, at, id,
		)
		return err
	})
}

// advance locks the job row, checks the lifecycle allows current -> to,
// applies update and appends the event. An empty expected accepts any current status.
func (l *JobLedger) advance(ctx context.Context, id uuid.UUID, expected, to types.JobStatus, at time.Time, update func(*sql.Tx) error) error {
	tx, err := l.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current types.JobStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM personalization_jobs WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read job status: %w", err)
	}

	if (expected != "" && current != expected) || !types.CanTransition(current, to) {
		return &pipeline.TransitionError{ID: id, From: current, To: to}
	}

	if err := update(tx); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_events (job_id, from_status, to_status, occurred_at) VALUES ($1, $2, $3, $4)`,
		id, string(current), string(to), at,
	); err != nil {
		return fmt.Errorf("failed to record job event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job %s: %w", id, err)
	}
	return nil
}

// Get retrieves a job with timings rebuilt from its event history
func (l *JobLedger) Get(ctx context.Context, id uuid.UUID) (*types.PersonalizationJob, error) {
	job, err := scanJob(l.db.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM personalization_jobs WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pipeline.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	events, err := l.Events(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Timings = timingsFromEvents(events)
	return job, nil
}

// Events returns a job's status changes in the order they were recorded
func (l *JobLedger) Events(ctx context.Context, id uuid.UUID) ([]JobEvent, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT job_id, from_status, to_status, occurred_at FROM job_events WHERE job_id = $1 ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []JobEvent
	for rows.Next() {
		var e JobEvent
		if err := rows.Scan(&e.JobID, &e.From, &e.To, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan job event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// List retrieves recent jobs with optional filters, newest first. Timings are not loaded.
func (l *JobLedger) List(ctx context.Context, filters JobFilters) ([]types.PersonalizationJob, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	q := psql.Select(jobColumns).
		From("personalization_jobs").
		OrderBy("created_at DESC").
		Limit(uint64(filters.Limit))
	if filters.Status != "" {
		q = q.Where(sq.Eq{"status": string(filters.Status)})
	}
	if filters.Domain != "" {
		q = q.Where(sq.Eq{"domain": filters.Domain})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build job query: %w", err)
	}

	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []types.PersonalizationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*types.PersonalizationJob, error) {
	var (
		job           types.PersonalizationJob
		contentJSON   []byte
		failureKind   sql.NullString
		failureReason sql.NullString
	)
	err := row.Scan(&job.ID, &job.Request.Email, &job.Request.Domain, &job.Request.Persona,
		&job.Request.BuyerStage, &job.Request.CTA, &job.Status, &contentJSON,
		&failureKind, &failureReason, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(contentJSON) > 0 {
		var content types.AdaptedContent
		if err := json.Unmarshal(contentJSON, &content); err != nil {
			return nil, fmt.Errorf("failed to decode content: %w", err)
		}
		job.Content = &content
	}
	job.FailureKind = failureKind.String
	job.FailureReason = failureReason.String
	return &job, nil
}
