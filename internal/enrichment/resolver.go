package enrichment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// Resolver defaults
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollAttempts = 20
	DefaultLookupTimeout   = 30 * time.Second
)

// ResolverConfig tunes the online lookup
type ResolverConfig struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	LookupTimeout   time.Duration
	CacheTTL        time.Duration
	// Offline skips the provider entirely and always serves the static table
	Offline bool
}

// DefaultResolverConfig returns the production polling budget
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		PollInterval:    DefaultPollInterval,
		MaxPollAttempts: DefaultMaxPollAttempts,
		LookupTimeout:   DefaultLookupTimeout,
		CacheTTL:        DefaultCacheTTL,
	}
}

// Resolver turns a domain into a company profile. It never fails: any
// provider or payload problem degrades to the offline profile.
type Resolver struct {
	provider Provider
	cache    Cache
	config   ResolverConfig
	logger   *zap.Logger
	now      Clock
}

// ResolverOption customizes a Resolver
type ResolverOption func(*Resolver)

// WithClock overrides the time source
func WithClock(clock Clock) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewResolver creates a resolver. provider and cache may be nil; with no
// provider every lookup is served offline.
func NewResolver(provider Provider, cache Cache, config *ResolverConfig, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	if config == nil {
		config = DefaultResolverConfig()
	}
	cfg := *config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		provider: provider,
		cache:    cache,
		config:   cfg,
		logger:   logger.Named("enrichment"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a profile for domain. requesterHint identifies who asked
// (usually the lead's email) and is forwarded to the provider.
func (r *Resolver) Resolve(ctx context.Context, domain, requesterHint string) *types.CompanyProfile {
	start := r.now()
	key := NormalizeDomain(domain)
	log := r.logger.With(zap.String("domain", key))

	if r.config.Offline || r.provider == nil {
		log.Debug("provider not configured, serving offline profile")
		return r.offline(key, start)
	}

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache read failed, treating as miss", zap.Error(err))
		} else if ok {
			log.Debug("cache hit")
			return r.stamp(cached, start)
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.config.LookupTimeout)
	defer cancel()

	profile, err := r.lookup(lookupCtx, key, requesterHint)
	if err != nil {
		log.Warn("enrichment unavailable, serving offline profile",
			zap.String("requester", observability.RedactEmail(requesterHint)),
			zap.Error(err))
		return r.offline(key, start)
	}

	if r.cache != nil {
		// Use the caller context so a timed-out lookup budget does not block the write.
		if err := r.cache.Put(ctx, key, profile, r.config.CacheTTL); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}

	out := r.stamp(profile, start)
	log.Info("enrichment resolved",
		zap.String("company", out.CompanyName),
		zap.Float64("confidence", out.ConfidenceScore),
		zap.Duration("duration", out.ResolutionDuration))
	return out
}

func (r *Resolver) lookup(ctx context.Context, domain, requester string) (*types.CompanyProfile, error) {
	jobID, err := r.provider.Submit(ctx, domain, requester)
	if err != nil {
		return nil, fmt.Errorf("submit failed: %w", err)
	}

	for attempt := 1; attempt <= r.config.MaxPollAttempts; attempt++ {
		if err := wait(ctx, r.config.PollInterval); err != nil {
			return nil, &ProviderError{Message: "lookup aborted", JobID: jobID, Cause: err}
		}

		status, err := r.provider.Status(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("status poll %d failed: %w", attempt, err)
		}
		if status == nil {
			return nil, &PayloadError{Message: "provider returned empty status"}
		}

		switch status.State {
		case StateCompleted:
			return NormalizeProfile(status.Data, domain, r.now())
		case StateFailed:
			msg := status.Message
			if msg == "" {
				msg = "unknown error"
			}
			return nil, &ProviderError{Message: "job failed: " + msg, JobID: jobID}
		}
	}

	return nil, &ProviderError{
		Message: fmt.Sprintf("max polling attempts reached (%d)", r.config.MaxPollAttempts),
		JobID:   jobID,
	}
}

func (r *Resolver) offline(domain string, start time.Time) *types.CompanyProfile {
	p := OfflineProfile(domain, r.now())
	p.ResolutionDuration = r.now().Sub(start)
	return p
}

// stamp sets the duration on a copy so cached records are never mutated
func (r *Resolver) stamp(p *types.CompanyProfile, start time.Time) *types.CompanyProfile {
	out := p.Clone()
	out.ResolutionDuration = r.now().Sub(start)
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
