// Package pipeline orchestrates one personalization job: enrichment,
// template selection, content adaptation and validation.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/leads"
	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/templates"
	"github.com/jonathan/lead-personalizer/internal/types"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

// Enricher resolves a domain to a company profile; it never fails
type Enricher interface {
	Resolve(ctx context.Context, domain, requesterHint string) *types.CompanyProfile
}

// TemplateSelector picks the best template for a lead
type TemplateSelector interface {
	Select(profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) templates.Template
}

// ContentAdapter turns a template into company-specific copy
type ContentAdapter interface {
	Adapt(ctx context.Context, tmpl templates.Template, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (*adaptation.Result, error)
}

// ProgressEvent reports a stage change during a run
type ProgressEvent struct {
	JobID   uuid.UUID       `json:"job_id"`
	Stage   types.JobStatus `json:"stage"`
	Message string          `json:"message"`
}

// ProgressCallback is called when a job changes stage
type ProgressCallback func(event ProgressEvent)

type progressKey struct{}

// ContextWithProgress attaches a callback that receives this run's events
// in addition to any registered with WithProgress.
func ContextWithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

func progressFrom(ctx context.Context) ProgressCallback {
	cb, _ := ctx.Value(progressKey{}).(ProgressCallback)
	return cb
}

// Config controls pipeline behavior
type Config struct {
	SLA            time.Duration
	ValidationMode validation.Mode
}

// DefaultConfig returns the standard pipeline configuration
func DefaultConfig() *Config {
	return &Config{
		SLA:            DefaultSLA,
		ValidationMode: validation.ModeAdvisory,
	}
}

// Metadata describes how a result was produced
type Metadata struct {
	JobID        uuid.UUID        `json:"job_id"`
	Persona      types.Persona    `json:"persona"`
	BuyerStage   types.BuyerStage `json:"buyer_stage"`
	TemplateID   string           `json:"template_id"`
	TemplateName string           `json:"template_name"`
	Model        string           `json:"model_used"`
	Retries      int              `json:"retries"`
	Durations    Durations        `json:"durations"`
}

// Result is the outcome of a successful job
type Result struct {
	Content    *types.AdaptedContent   `json:"content"`
	Enrichment types.EnrichmentSummary `json:"enrichment"`
	Metadata   Metadata                `json:"metadata"`
	Validation types.ValidationReport  `json:"validation"`
}

// Pipeline runs personalization jobs. It holds no per-job state and is safe
// for concurrent use when its collaborators are.
type Pipeline struct {
	enricher   Enricher
	selector   TemplateSelector
	adapter    ContentAdapter
	ledger     Ledger
	config     *Config
	logger     *zap.Logger
	now        func() time.Time
	newID      func() uuid.UUID
	onProgress ProgressCallback
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithClock overrides the pipeline clock
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides job id generation
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// WithProgress registers a stage-change callback
func WithProgress(cb ProgressCallback) Option {
	return func(p *Pipeline) { p.onProgress = cb }
}

// New creates a pipeline. A nil ledger uses a MemoryLedger; a nil selector
// uses the default catalog.
func New(enricher Enricher, selector TemplateSelector, adapter ContentAdapter, ledger Ledger, config *Config, logger *zap.Logger, opts ...Option) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.SLA <= 0 {
		cfg.SLA = DefaultSLA
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	if selector == nil {
		selector = templates.NewSelector(nil, logger)
	}
	p := &Pipeline{
		enricher: enricher,
		selector: selector,
		adapter:  adapter,
		ledger:   ledger,
		config:   &cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ledger returns the ledger jobs are recorded in
func (p *Pipeline) Ledger() Ledger {
	return p.ledger
}

// job tracks one run's lifecycle position
type job struct {
	p          *Pipeline
	ctx        context.Context
	id         uuid.UUID
	status     types.JobStatus
	stageStart time.Time
	log        *zap.Logger
	progress   ProgressCallback
}

func (j *job) emit(stage types.JobStatus, message string) {
	event := ProgressEvent{JobID: j.id, Stage: stage, Message: message}
	if j.p.onProgress != nil {
		j.p.onProgress(event)
	}
	if j.progress != nil {
		j.progress(event)
	}
}

func (j *job) enter(stage types.JobStatus, message string) {
	at := j.p.now()
	if err := j.p.ledger.Transition(j.ctx, j.id, j.status, stage, at); err != nil {
		j.log.Warn("ledger transition failed", zap.String("to", string(stage)), zap.Error(err))
	}
	j.status = stage
	j.stageStart = at
	j.emit(stage, message)
}

func (j *job) elapsed() time.Duration {
	return j.p.now().Sub(j.stageStart)
}

func (j *job) fail(ctx context.Context, err error) error {
	pErr := classify(ctx, err, j.id)
	if recErr := j.p.ledger.Fail(j.ctx, j.id, string(pErr.Kind), pErr.Message, j.p.now()); recErr != nil {
		j.log.Warn("ledger fail failed", zap.Error(recErr))
	}
	j.log.Error("personalization failed",
		zap.String("stage", string(j.status)),
		zap.String("kind", string(pErr.Kind)),
		zap.Error(err),
	)
	j.emit(types.JobFailed, pErr.Message)
	return pErr
}

// Run executes one job end to end
func (p *Pipeline) Run(ctx context.Context, req types.PersonalizationRequest) (*Result, error) {
	start := p.now()

	req, err := leads.Normalize(req)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: "invalid personalization request", Cause: err}
	}
	if p.enricher == nil || p.adapter == nil {
		return nil, &Error{Kind: KindInternal, Message: "pipeline is not fully configured"}
	}

	j := &job{
		p: p,
		// Ledger writes outlive caller cancellation so a cancelled job is still marked failed
		ctx:      context.WithoutCancel(ctx),
		id:       p.newID(),
		status:   types.JobPending,
		progress: progressFrom(ctx),
		log: p.logger.With(
			zap.String("email", observability.RedactEmail(req.Email)),
			zap.String("domain", req.Domain),
			zap.String("persona", string(req.Persona)),
			zap.String("buyer_stage", string(req.BuyerStage)),
		),
	}
	j.log = j.log.With(zap.String("job_id", j.id.String()))

	record := &types.PersonalizationJob{
		ID:        j.id,
		Request:   req,
		Status:    types.JobPending,
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := p.ledger.Create(j.ctx, record); err != nil {
		j.log.Warn("ledger create failed", zap.Error(err))
	}

	var d Durations

	j.enter(types.JobEnriching, "resolving company profile")
	profile := p.enricher.Resolve(ctx, req.Domain, req.Email)
	d.Enrichment = j.elapsed()
	if err := ctx.Err(); err != nil {
		return nil, j.fail(ctx, err)
	}
	j.log.Info("enrichment resolved",
		zap.String("company", profile.CompanyName),
		zap.Float64("confidence", profile.ConfidenceScore),
		zap.Strings("sources", profile.SourcesUsed),
		zap.Duration("duration", d.Enrichment),
	)

	j.enter(types.JobSelecting, "selecting template")
	tmpl := p.selector.Select(profile, req.Persona, req.BuyerStage)
	d.Selection = j.elapsed()
	j.log.Info("template selected", zap.String("template_id", tmpl.ID))

	j.enter(types.JobAdapting, "adapting content")
	adapted, err := p.adapter.Adapt(ctx, tmpl, profile, req.Persona, req.BuyerStage)
	d.Adaptation = j.elapsed()
	if err != nil {
		return nil, j.fail(ctx, err)
	}

	j.enter(types.JobValidating, "validating content")
	report := validation.Validate(adapted.Content)
	d.Validation = j.elapsed()
	if !report.Valid {
		j.log.Warn("content validation failed",
			zap.Strings("violations", report.Messages()),
			zap.String("mode", string(p.config.ValidationMode)),
		)
	}
	if err := validation.Enforce(report, p.config.ValidationMode); err != nil {
		return nil, j.fail(ctx, err)
	}

	end := p.now()
	if err := p.ledger.Complete(j.ctx, j.id, adapted.Content, end); err != nil {
		j.log.Warn("ledger complete failed", zap.Error(err))
	}
	d.Total = end.Sub(start)
	d.SLAMet = d.Total <= p.config.SLA
	if !d.SLAMet {
		j.log.Warn("SLA exceeded", zap.Duration("total", d.Total), zap.Duration("sla", p.config.SLA))
	}
	j.emit(types.JobCompleted, "completed")
	j.log.Info("personalization completed", zap.Duration("total", d.Total), zap.Bool("sla_met", d.SLAMet))

	return &Result{
		Content:    adapted.Content,
		Enrichment: profile.Summary(),
		Metadata: Metadata{
			JobID:        j.id,
			Persona:      req.Persona,
			BuyerStage:   req.BuyerStage,
			TemplateID:   adapted.Metadata.TemplateID,
			TemplateName: adapted.Metadata.TemplateName,
			Model:        adapted.Metadata.Model,
			Retries:      adapted.Metadata.Retries,
			Durations:    d,
		},
		Validation: report,
	}, nil
}

// Failure is the caller-facing error shape
type Failure struct {
	Kind       ErrorKind `json:"error_kind"`
	Message    string    `json:"message"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
}

// Response is exactly one of a result or a failure
type Response struct {
	Result  *Result  `json:"result,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Personalize runs a job and folds any error into a user-safe Failure
func (p *Pipeline) Personalize(ctx context.Context, attrs types.PersonalizationRequest) Response {
	result, err := p.Run(ctx, attrs)
	if err == nil {
		return Response{Result: result}
	}
	return Response{Failure: FailureFrom(err)}
}

// FailureFrom converts any error into the caller-facing shape
func FailureFrom(err error) *Failure {
	var pErr *Error
	if !errors.As(err, &pErr) {
		pErr = classify(context.Background(), err, uuid.Nil)
	}
	f := &Failure{
		Kind:       pErr.Kind,
		Message:    pErr.Message,
		Diagnostic: diagnostic(pErr.Cause),
	}
	if pErr.JobID != uuid.Nil {
		f.JobID = pErr.JobID.String()
	}
	return f
}

// diagnostic names the failing component without echoing provider text
func diagnostic(err error) string {
	var (
		apiErr   *llm.APIError
		parseErr *adaptation.ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return string(apiErr.Provider) + " request failed"
	case errors.As(err, &parseErr):
		return "output " + parseErr.Stage + " error"
	case errors.Is(err, adaptation.ErrGeneratorTimeout):
		return "generator timed out"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return ""
	}
}
