// Package adaptation rewrites a selected template into company-specific copy
// using a text generator, with one JSON-fix retry on malformed output.
package adaptation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/templates"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// MaxAttempts is the first call plus the single fix retry
const MaxAttempts = 2

// Generation defaults
const (
	DefaultTemperature      float32 = 0.3
	DefaultRetryTemperature float32 = 0.1
	DefaultMaxTokens                = 2048
	DefaultTimeout                  = 30 * time.Second
)

// Generator produces text for one request; llm.Client satisfies it
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
	ModelName() string
}

// Config controls generation parameters
type Config struct {
	Temperature      float32
	RetryTemperature float32
	MaxTokens        int
	// Timeout bounds each generator call; zero disables the bound
	Timeout          time.Duration
}

// DefaultConfig returns the standard generation settings
func DefaultConfig() *Config {
	return &Config{
		Temperature:      DefaultTemperature,
		RetryTemperature: DefaultRetryTemperature,
		MaxTokens:        DefaultMaxTokens,
		Timeout:          DefaultTimeout,
	}
}

// Metadata describes how content was produced
type Metadata struct {
	TemplateID   string        `json:"template_id"`
	TemplateName string        `json:"template_name"`
	Model        string        `json:"model_used"`
	Latency      time.Duration `json:"llm_latency_ns"`
	Attempts     int           `json:"attempts"`
	Retries      int           `json:"retries"`
}

// Result is adapted content plus its metadata
type Result struct {
	Content  *types.AdaptedContent
	Metadata Metadata
}

// Adapter fills templates and drives the generator
type Adapter struct {
	generator Generator
	filler    *templates.Filler
	config    *Config
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithClock overrides the clock used for latency and company age
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithFiller overrides the placeholder filler
func WithFiller(f *templates.Filler) Option {
	return func(a *Adapter) { a.filler = f }
}

// NewAdapter creates an adapter. A nil config uses DefaultConfig.
func NewAdapter(generator Generator, config *Config, logger *zap.Logger, opts ...Option) *Adapter {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		generator: generator,
		filler:    templates.NewFiller(),
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adapt produces AdaptedContent for one template and profile.
// It makes at most two generator calls: the adaptation prompt, then the fix prompt.
func (a *Adapter) Adapt(ctx context.Context, tmpl templates.Template, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (*Result, error) {
	if a.generator == nil {
		return nil, &UnavailableError{Message: "no text generator configured"}
	}
	start := a.now()

	intro, err := a.filler.Fill(tmpl.IntroTemplate, profile, persona, stage)
	if err != nil {
		return nil, err
	}
	cta, err := a.filler.Fill(tmpl.CTATemplate, profile, persona, stage)
	if err != nil {
		return nil, err
	}

	system := SystemPrompt()
	original := BuildPrompt(intro, cta, profile, persona, stage, start)
	log := a.logger.With(zap.String("template_id", tmpl.ID), zap.String("model", a.generator.ModelName()))

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &UnavailableError{Message: "request cancelled", Cause: err}
		}

		req := llm.Request{
			System:      system,
			Prompt:      original,
			Temperature: a.config.Temperature,
			MaxTokens:   a.config.MaxTokens,
			JSON:        true,
		}
		if attempt > 1 {
			req.Prompt = FixPrompt(lastErr, original)
			req.Temperature = a.config.RetryTemperature
		}

		text, err := a.generate(ctx, req)
		if err != nil {
			if !errors.Is(err, llm.ErrEmptyResponse) {
				if ctx.Err() != nil {
					return nil, &UnavailableError{Message: "request cancelled", Cause: ctx.Err()}
				}
				if errors.Is(err, ErrGeneratorTimeout) {
					return nil, &UnavailableError{Message: "generator call timed out", Cause: err}
				}
				return nil, &UnavailableError{Message: "generator call failed", Cause: err}
			}
			lastErr = &ParseError{Stage: "syntax", Cause: err}
		} else {
			content, parseErr := ParseContent(text)
			if parseErr == nil {
				return &Result{
					Content: content,
					Metadata: Metadata{
						TemplateID:   tmpl.ID,
						TemplateName: tmpl.Name,
						Model:        a.generator.ModelName(),
						Latency:      a.now().Sub(start),
						Attempts:     attempt,
						Retries:      attempt - 1,
					},
				}, nil
			}
			lastErr = parseErr
		}

		log.Warn("generator output rejected",
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
	}

	return nil, &MalformedError{Attempts: MaxAttempts, Cause: lastErr}
}

// generate makes one generator call under the per-call timeout. A deadline
// hit by that timeout, and not by ctx, is reported as ErrGeneratorTimeout.
func (a *Adapter) generate(ctx context.Context, req llm.Request) (string, error) {
	if a.config.Timeout <= 0 {
		return a.generator.Generate(ctx, req)
	}
	callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	text, err := a.generator.Generate(callCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrGeneratorTimeout, a.config.Timeout)
	}
	return text, err
}
