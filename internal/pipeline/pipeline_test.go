package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/templates"
	"github.com/jonathan/lead-personalizer/internal/types"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

// MockGenerator is a mock text generator for testing
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)
	calls        int
	mu           sync.Mutex
}

func (m *MockGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.GenerateFunc(ctx, req)
}

func (m *MockGenerator) ModelName() string { return "mock-model" }

func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockAdapter is a mock ContentAdapter for testing
type MockAdapter struct {
	AdaptFunc func(ctx context.Context, tmpl templates.Template, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (*adaptation.Result, error)
}

func (m *MockAdapter) Adapt(ctx context.Context, tmpl templates.Template, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (*adaptation.Result, error) {
	return m.AdaptFunc(ctx, tmpl, profile, persona, stage)
}

// failingLedger rejects every write
type failingLedger struct{}

func (failingLedger) Create(context.Context, *types.PersonalizationJob) error { return errors.New("db down") }
func (failingLedger) Transition(context.Context, uuid.UUID, types.JobStatus, types.JobStatus, time.Time) error {
	return errors.New("db down")
}
func (failingLedger) Complete(context.Context, uuid.UUID, *types.AdaptedContent, time.Time) error {
	return errors.New("db down")
}
func (failingLedger) Fail(context.Context, uuid.UUID, string, string, time.Time) error {
	return errors.New("db down")
}

const validJSON = `{
  "headline": "Example Corp can simplify security reviews for every team",
  "subheadline": "Give security teams one consistent way to evaluate controls, document risk decisions and keep compliance evidence ready for every audit cycle",
  "cta_text": "Compare security approaches today",
  "value_prop_1": "Centralize control evidence so audits take days instead of several weeks",
  "value_prop_2": "Map existing policies to frameworks without rebuilding your current tooling",
  "value_prop_3": "Give reviewers a shared view of open risks and owners"
}`

const invalidCopyJSON = `{
  "headline": "The best!!",
  "subheadline": "short",
  "cta_text": "Go",
  "value_prop_1": "a",
  "value_prop_2": "b",
  "value_prop_3": "c"
}`

func offlineResolver() *enrichment.Resolver {
	cfg := enrichment.DefaultResolverConfig()
	cfg.Offline = true
	return enrichment.NewResolver(nil, nil, cfg, nil)
}

func generatorReturning(responses ...string) *MockGenerator {
	i := 0
	var mu sync.Mutex
	return &MockGenerator{GenerateFunc: func(context.Context, llm.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		r := responses[i]
		if i < len(responses)-1 {
			i++
		}
		return r, nil
	}}
}

func securityRequest() types.PersonalizationRequest {
	return types.PersonalizationRequest{
		Email:      "jane@example.com",
		Persona:    types.PersonaSecurity,
		BuyerStage: types.StageEvaluation,
	}
}

// steppingClock advances by step on every call
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestRun_OfflineEndToEnd(t *testing.T) {
	ledger := NewMemoryLedger()
	gen := generatorReturning(validJSON)
	var events []types.JobStatus
	p := New(offlineResolver(), nil, adaptation.NewAdapter(gen, nil, nil), ledger, nil, nil,
		WithProgress(func(e ProgressEvent) { events = append(events, e.Stage) }),
	)

	result, err := p.Run(context.Background(), securityRequest())
	require.NoError(t, err)

	assert.Equal(t, "Example Corp", result.Enrichment.CompanyName)
	assert.Equal(t, []string{enrichment.OfflineSource}, result.Enrichment.SourcesUsed)
	assert.InDelta(t, enrichment.OfflineConfidence, result.Enrichment.ConfidenceScore, 1e-9)
	assert.NotEmpty(t, result.Metadata.TemplateID)
	assert.Equal(t, "mock-model", result.Metadata.Model)
	assert.Equal(t, 0, result.Metadata.Retries)
	assert.True(t, result.Validation.Valid, result.Validation.Messages())
	assert.True(t, result.Metadata.Durations.SLAMet)
	assert.Equal(t, 1, gen.Calls())

	assert.Equal(t, []types.JobStatus{
		types.JobEnriching, types.JobSelecting, types.JobAdapting, types.JobValidating, types.JobCompleted,
	}, events)

	job, err := ledger.Get(context.Background(), result.Metadata.JobID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, job.Status)
	assert.Equal(t, "example.com", job.Request.Domain)
	require.NotNil(t, job.Content)
	assert.Equal(t, result.Content.Headline, job.Content.Headline)
	require.Len(t, job.Timings, 4)
	for _, timing := range job.Timings {
		assert.False(t, timing.EndedAt.IsZero(), timing.Stage)
	}
}

// downProvider fails every enrichment call
type downProvider struct {
	mu     sync.Mutex
	submit int
}

func (d *downProvider) Submit(context.Context, string, string) (string, error) {
	d.mu.Lock()
	d.submit++
	d.mu.Unlock()
	return "", errors.New("enrichment service unreachable")
}

func (d *downProvider) Status(context.Context, string) (*enrichment.JobStatus, error) {
	return nil, errors.New("enrichment service unreachable")
}

func TestRun_UnknownDomainWithEnrichmentDown(t *testing.T) {
	provider := &downProvider{}
	resolver := enrichment.NewResolver(provider, enrichment.NewMemoryCache(nil), enrichment.DefaultResolverConfig(), nil)
	p := New(resolver, nil, adaptation.NewAdapter(generatorReturning(validJSON), nil, nil), nil, nil, nil)

	result, err := p.Run(context.Background(), types.PersonalizationRequest{
		Email:      "dana@unknown-startup.io",
		Domain:     "unknown-startup.io",
		Persona:    types.PersonaSecurity,
		BuyerStage: types.StageEvaluation,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.submit)
	assert.Equal(t, "fallback-evaluation", result.Metadata.TemplateID)
	assert.InDelta(t, 0.5, result.Enrichment.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"offline"}, result.Enrichment.SourcesUsed)
}

func TestRun_DurationsAndSLA(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SLA = 5 * time.Second
	p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(validJSON), nil, nil), nil, cfg, nil,
		WithClock(steppingClock(time.Second)),
	)

	result, err := p.Run(context.Background(), securityRequest())
	require.NoError(t, err)

	d := result.Metadata.Durations
	assert.Equal(t, time.Second, d.Enrichment)
	assert.Equal(t, time.Second, d.Selection)
	assert.Equal(t, time.Second, d.Adaptation)
	assert.Equal(t, time.Second, d.Validation)
	assert.Greater(t, d.Total, cfg.SLA)
	assert.False(t, d.SLAMet)
}

func TestNew_DoesNotMutateConfig(t *testing.T) {
	cfg := &Config{ValidationMode: validation.ModeBlocking}
	p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(validJSON), nil, nil), nil, cfg, nil)

	assert.Zero(t, cfg.SLA)
	assert.Equal(t, DefaultSLA, p.config.SLA)
	assert.Equal(t, validation.ModeBlocking, p.config.ValidationMode)

	cfg.ValidationMode = validation.ModeAdvisory
	assert.Equal(t, validation.ModeBlocking, p.config.ValidationMode)
}

func TestRun_RetryIsReported(t *testing.T) {
	gen := generatorReturning(`{"headline": `, validJSON)
	p := New(offlineResolver(), nil, adaptation.NewAdapter(gen, nil, nil), nil, nil, nil)

	result, err := p.Run(context.Background(), securityRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.Retries)
	assert.Equal(t, 2, gen.Calls())
}

func TestRun_GenerationErrors(t *testing.T) {
	tests := []struct {
		name     string
		gen      *MockGenerator
		timeout  time.Duration
		wantKind ErrorKind
		wantDiag string
	}{
		{
			name:     "malformed twice",
			gen:      generatorReturning("nope", "still nope"),
			wantKind: KindGenerationMalformed,
			wantDiag: "output syntax error",
		},
		{
			name: "provider down",
			gen: &MockGenerator{GenerateFunc: func(context.Context, llm.Request) (string, error) {
				return "", &llm.APIError{Provider: llm.ProviderBedrock, Message: "secret internal detail"}
			}},
			wantKind: KindGenerationUnavailable,
			wantDiag: "bedrock request failed",
		},
		{
			name: "generator hangs past its call timeout",
			gen: &MockGenerator{GenerateFunc: func(ctx context.Context, _ llm.Request) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			}},
			timeout:  20 * time.Millisecond,
			wantKind: KindGenerationUnavailable,
			wantDiag: "generator timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewMemoryLedger()
			id := uuid.New()
			acfg := adaptation.DefaultConfig()
			if tt.timeout > 0 {
				acfg.Timeout = tt.timeout
			}
			p := New(offlineResolver(), nil, adaptation.NewAdapter(tt.gen, acfg, nil), ledger, nil, nil,
				WithIDGenerator(func() uuid.UUID { return id }),
			)

			_, err := p.Run(context.Background(), securityRequest())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))

			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, id, pErr.JobID)
			assert.NotContains(t, pErr.Message, "secret")

			job, getErr := ledger.Get(context.Background(), id)
			require.NoError(t, getErr)
			assert.Equal(t, types.JobFailed, job.Status)
			assert.Equal(t, string(tt.wantKind), job.FailureKind)
			assert.Nil(t, job.Content)

			f := FailureFrom(err)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantDiag, f.Diagnostic)
			assert.Equal(t, id.String(), f.JobID)
		})
	}
}

func TestRun_ValidationModes(t *testing.T) {
	t.Run("advisory attaches report", func(t *testing.T) {
		p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(invalidCopyJSON), nil, nil), nil, nil, nil)

		result, err := p.Run(context.Background(), securityRequest())
		require.NoError(t, err)
		assert.False(t, result.Validation.Valid)
		assert.NotEmpty(t, result.Validation.Violations)
		assert.Equal(t, "The best!!", result.Content.Headline)
	})

	t.Run("blocking fails the job", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ValidationMode = validation.ModeBlocking
		ledger := NewMemoryLedger()
		p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(invalidCopyJSON), nil, nil), ledger, cfg, nil)

		_, err := p.Run(context.Background(), securityRequest())
		assert.Equal(t, KindValidationFailed, KindOf(err))
		var failed *validation.ValidationFailedError
		assert.ErrorAs(t, err, &failed)
	})
}

func TestRun_InvalidRequest(t *testing.T) {
	p := New(offlineResolver(), nil, &MockAdapter{}, nil, nil, nil)

	tests := []types.PersonalizationRequest{
		{Email: "not-an-email"},
		{Email: "jane@example.com", Persona: "Astronaut"},
	}
	for _, req := range tests {
		_, err := p.Run(context.Background(), req)
		assert.Equal(t, KindInvalidRequest, KindOf(err), req.Email)
	}
	assert.Equal(t, 0, p.Ledger().(*MemoryLedger).Len())
}

func TestRun_InfersPersonaAndStage(t *testing.T) {
	var gotPersona types.Persona
	var gotStage types.BuyerStage
	adapter := &MockAdapter{AdaptFunc: func(_ context.Context, tmpl templates.Template, _ *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (*adaptation.Result, error) {
		gotPersona, gotStage = persona, stage
		c, err := adaptation.ParseContent(validJSON)
		require.NoError(t, err)
		return &adaptation.Result{Content: c, Metadata: adaptation.Metadata{TemplateID: tmpl.ID, TemplateName: tmpl.Name}}, nil
	}}
	p := New(offlineResolver(), nil, adapter, nil, nil, nil)

	result, err := p.Run(context.Background(), types.PersonalizationRequest{Email: "cfo@salesforce.com", CTA: "book a demo"})
	require.NoError(t, err)

	assert.Equal(t, types.PersonaFinance, gotPersona)
	assert.Equal(t, types.StageDecision, gotStage)
	assert.Equal(t, types.PersonaFinance, result.Metadata.Persona)
	assert.Equal(t, "Salesforce, Inc.", result.Enrichment.CompanyName)
}

func TestRun_LedgerFailuresAreSwallowed(t *testing.T) {
	p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(validJSON), nil, nil), failingLedger{}, nil, nil)

	result, err := p.Run(context.Background(), securityRequest())
	require.NoError(t, err)
	assert.NotNil(t, result.Content)
}

func TestRun_CancelledDuringEnrichment(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	provider := &blockingProvider{submitted: make(chan struct{})}
	cfg := enrichment.DefaultResolverConfig()
	cfg.PollInterval = time.Hour
	resolver := enrichment.NewResolver(provider, enrichment.NewMemoryCache(nil), cfg, nil)

	gen := generatorReturning(validJSON)
	ledger := NewMemoryLedger()
	id := uuid.New()
	p := New(resolver, nil, adaptation.NewAdapter(gen, nil, nil), ledger, nil, nil,
		WithIDGenerator(func() uuid.UUID { return id }),
	)

	go func() {
		<-provider.submitted
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, securityRequest())
		done <- err
	}()

	select {
	case err := <-done:
		assert.Equal(t, KindCancelled, KindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not return after cancellation")
	}

	assert.Equal(t, 0, gen.Calls())
	job, err := ledger.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, job.Status)
	assert.Equal(t, string(KindCancelled), job.FailureKind)
}

// blockingProvider accepts a submission and never completes it
type blockingProvider struct {
	once      sync.Once
	submitted chan struct{}
}

func (b *blockingProvider) Submit(context.Context, string, string) (string, error) {
	b.once.Do(func() { close(b.submitted) })
	return "job-1", nil
}

func (b *blockingProvider) Status(context.Context, string) (*enrichment.JobStatus, error) {
	return &enrichment.JobStatus{State: enrichment.StatePending}, nil
}

func TestPersonalize(t *testing.T) {
	p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning(validJSON), nil, nil), nil, nil, nil)

	resp := p.Personalize(context.Background(), securityRequest())
	require.NotNil(t, resp.Result)
	assert.Nil(t, resp.Failure)

	resp = p.Personalize(context.Background(), types.PersonalizationRequest{Email: "bad"})
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Failure)
	assert.Equal(t, KindInvalidRequest, resp.Failure.Kind)
	assert.Empty(t, resp.Failure.JobID)
}

func TestRun_NotConfigured(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil, nil).Run(context.Background(), securityRequest())
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestDurations_MarshalJSON(t *testing.T) {
	d := Durations{Enrichment: 1500 * time.Millisecond, Adaptation: 2 * time.Second, Total: 4 * time.Second, SLAMet: true}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enrichment_ms":1500,"selection_ms":0,"adaptation_ms":2000,"validation_ms":0,"total_ms":4000,"sla_met":true}`, string(data))
}

func TestRun_ContextProgress(t *testing.T) {
	var global, scoped []types.JobStatus
	p := New(offlineResolver(), nil, adaptation.NewAdapter(generatorReturning("x", "y"), nil, nil), nil, nil, nil,
		WithProgress(func(e ProgressEvent) { global = append(global, e.Stage) }),
	)

	ctx := ContextWithProgress(context.Background(), func(e ProgressEvent) { scoped = append(scoped, e.Stage) })
	_, err := p.Run(ctx, securityRequest())
	require.Error(t, err)

	want := []types.JobStatus{types.JobEnriching, types.JobSelecting, types.JobAdapting, types.JobFailed}
	assert.Equal(t, want, scoped)
	assert.Equal(t, want, global)
}
