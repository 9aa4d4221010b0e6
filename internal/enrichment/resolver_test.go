package enrichment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// MockProvider is a test double for Provider
type MockProvider struct {
	SubmitFunc func(ctx context.Context, domain, requester string) (string, error)
	StatusFunc func(ctx context.Context, jobID string) (*JobStatus, error)

	submits atomic.Int32
	polls   atomic.Int32
}

func (m *MockProvider) Submit(ctx context.Context, domain, requester string) (string, error) {
	m.submits.Add(1)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, domain, requester)
	}
	return "job-1", nil
}

func (m *MockProvider) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	m.polls.Add(1)
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, jobID)
	}
	return &JobStatus{State: StateCompleted, Data: acmePayload()}, nil
}

// failingCache always errors
type failingCache struct{}

func (failingCache) Get(context.Context, string) (*types.CompanyProfile, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Put(context.Context, string, *types.CompanyProfile, time.Duration) error {
	return errors.New("cache down")
}

func acmePayload() map[string]any {
	return map[string]any{
		"company_name":     "Acme Corp",
		"industry":         "Software",
		"employee_count":   float64(2500),
		"confidence_score": 0.9,
	}
}

func fastConfig() *ResolverConfig {
	return &ResolverConfig{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
		LookupTimeout:   time.Second,
		CacheTTL:        time.Hour,
	}
}

func TestResolve_OnlineSuccessIsCached(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	provider := &MockProvider{}
	cache := NewMemoryCache(nil)
	r := NewResolver(provider, cache, fastConfig(), nil)

	p := r.Resolve(context.Background(), "acme.io", "jane@acme.io")
	assert.Equal(t, "Acme Corp", p.CompanyName)
	assert.Equal(t, types.SizeMidMarket, p.CompanySize)
	assert.Equal(t, 0.9, p.ConfidenceScore)
	assert.False(t, IsOffline(p))

	cached, ok, err := cache.Get(context.Background(), "acme.io")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", cached.CompanyName)

	// Second resolve is served from cache without touching the provider
	again := r.Resolve(context.Background(), "ACME.io", "jane@acme.io")
	assert.Equal(t, "Acme Corp", again.CompanyName)
	assert.Equal(t, int32(1), provider.submits.Load())
}

func TestResolve_CacheHitStampsCopy(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(clock.Now)
	stored := sampleProfile("Cached")
	require.NoError(t, cache.Put(context.Background(), "acme.io", stored, time.Hour))

	ticking := func() time.Time {
		clock.Advance(time.Millisecond)
		return clock.Now()
	}
	r := NewResolver(&MockProvider{}, cache, fastConfig(), nil, WithClock(ticking))
	p := r.Resolve(context.Background(), "acme.io", "")
	assert.Equal(t, "Cached", p.CompanyName)
	assert.Positive(t, p.ResolutionDuration)

	again, _, _ := cache.Get(context.Background(), "acme.io")
	assert.Zero(t, again.ResolutionDuration)
}

func TestResolve_PollsUntilCompleted(t *testing.T) {
	var calls atomic.Int32
	provider := &MockProvider{
		StatusFunc: func(ctx context.Context, jobID string) (*JobStatus, error) {
			if calls.Add(1) < 3 {
				return &JobStatus{State: StateProcessing}, nil
			}
			return &JobStatus{State: StateCompleted, Data: acmePayload()}, nil
		},
	}
	r := NewResolver(provider, nil, fastConfig(), nil)

	p := r.Resolve(context.Background(), "acme.io", "")
	assert.Equal(t, "Acme Corp", p.CompanyName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_FallsBackOffline(t *testing.T) {
	tests := []struct {
		name     string
		provider *MockProvider
	}{
		{
			name: "submit error",
			provider: &MockProvider{SubmitFunc: func(context.Context, string, string) (string, error) {
				return "", errors.New("connection refused")
			}},
		},
		{
			name: "status error",
			provider: &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
				return nil, errors.New("HTTP status 500")
			}},
		},
		{
			name: "job failed",
			provider: &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
				return &JobStatus{State: StateFailed, Message: "no data"}, nil
			}},
		},
		{
			name: "polling exhausted",
			provider: &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
				return &JobStatus{State: StatePending}, nil
			}},
		},
		{
			name: "malformed payload",
			provider: &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
				return &JobStatus{State: StateCompleted}, nil
			}},
		},
		{
			name: "nil status",
			provider: &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
				return nil, nil
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache(nil)
			r := NewResolver(tt.provider, cache, fastConfig(), nil)

			p := r.Resolve(context.Background(), "unknown-startup.io", "")
			require.NotNil(t, p)
			assert.True(t, IsOffline(p))
			assert.Equal(t, 0.5, p.ConfidenceScore)
			assert.Equal(t, "Company (unknown-startup.io)", p.CompanyName)
			assert.Equal(t, 0, cache.Len(), "offline profiles must not be cached")
		})
	}
}

func TestResolve_BoundedPollAttempts(t *testing.T) {
	provider := &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
		return &JobStatus{State: StateProcessing}, nil
	}}
	r := NewResolver(provider, nil, fastConfig(), nil)

	r.Resolve(context.Background(), "acme.io", "")
	assert.Equal(t, int32(3), provider.polls.Load())
}

func TestResolve_NoProviderIsOffline(t *testing.T) {
	r := NewResolver(nil, NewMemoryCache(nil), nil, nil)
	p := r.Resolve(context.Background(), "salesforce.com", "")
	assert.Equal(t, "Salesforce, Inc.", p.CompanyName)
	assert.True(t, IsOffline(p))
}

func TestResolve_OfflineModeSkipsProvider(t *testing.T) {
	provider := &MockProvider{}
	cfg := fastConfig()
	cfg.Offline = true
	r := NewResolver(provider, nil, cfg, nil)

	p := r.Resolve(context.Background(), "acme.io", "")
	assert.True(t, IsOffline(p))
	assert.Equal(t, int32(0), provider.submits.Load())
}

func TestResolve_CacheErrorsAreSwallowed(t *testing.T) {
	r := NewResolver(&MockProvider{}, failingCache{}, fastConfig(), nil)
	p := r.Resolve(context.Background(), "acme.io", "")
	assert.Equal(t, "Acme Corp", p.CompanyName)
	assert.False(t, IsOffline(p))
}

func TestResolve_ExpiredCacheEntryRefreshes(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(clock.Now)
	require.NoError(t, cache.Put(context.Background(), "acme.io", sampleProfile("Stale"), time.Hour))
	clock.Advance(2 * time.Hour)

	provider := &MockProvider{}
	r := NewResolver(provider, cache, fastConfig(), nil, WithClock(clock.Now))

	p := r.Resolve(context.Background(), "acme.io", "")
	assert.Equal(t, "Acme Corp", p.CompanyName)
	assert.Equal(t, int32(1), provider.submits.Load())
}

func TestResolve_CallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	provider := &MockProvider{}
	cfg := fastConfig()
	cfg.PollInterval = time.Hour
	cfg.MaxPollAttempts = 20
	r := NewResolver(provider, nil, cfg, nil)

	// The first wait would block for an hour without cancellation
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	p := r.Resolve(ctx, "acme.io", "")
	assert.True(t, IsOffline(p))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolve_LookupTimeout(t *testing.T) {
	provider := &MockProvider{StatusFunc: func(context.Context, string) (*JobStatus, error) {
		return &JobStatus{State: StatePending}, nil
	}}
	cfg := fastConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.MaxPollAttempts = 1000
	cfg.LookupTimeout = 50 * time.Millisecond
	r := NewResolver(provider, nil, cfg, nil)

	start := time.Now()
	p := r.Resolve(context.Background(), "acme.io", "")
	assert.True(t, IsOffline(p))
	assert.Less(t, time.Since(start), 2*time.Second)
}
