package enrichment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// DefaultCacheTTL is how long an online resolution stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// Cache maps a domain to a previously resolved profile.
// Expired entries are reported absent on Get; nothing is evicted actively.
type Cache interface {
	Get(ctx context.Context, domain string) (*types.CompanyProfile, bool, error)
	Put(ctx context.Context, domain string, profile *types.CompanyProfile, ttl time.Duration) error
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// NormalizeDomain lower-cases and trims a domain for use as a cache key
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}

type memoryEntry struct {
	profile  *types.CompanyProfile
	cachedAt time.Time
	ttl      time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return !now.Before(e.cachedAt.Add(e.ttl))
}

// MemoryCache is an in-process Cache safe for concurrent use
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     Clock
}

// NewMemoryCache creates an empty cache. A nil clock uses time.Now.
func NewMemoryCache(clock Clock) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     clock,
	}
}

// Get returns a copy of the cached profile if present and not expired
func (c *MemoryCache) Get(_ context.Context, domain string) (*types.CompanyProfile, bool, error) {
	key := NormalizeDomain(domain)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(c.now()) {
		return nil, false, nil
	}
	return entry.profile.Clone(), true, nil
}

// Put upserts a profile and resets its TTL
func (c *MemoryCache) Put(_ context.Context, domain string, profile *types.CompanyProfile, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entry := memoryEntry{
		profile:  profile.Clone(),
		cachedAt: c.now(),
		ttl:      ttl,
	}

	c.mu.Lock()
	c.entries[NormalizeDomain(domain)] = entry
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
