package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// EnrichmentCache is a durable enrichment.Cache. Expired rows stay in the
// table until overwritten; Get simply ignores them.
type EnrichmentCache struct {
	db *DB
}

var _ enrichment.Cache = (*EnrichmentCache)(nil)

// NewEnrichmentCache creates a cache on db
func NewEnrichmentCache(db *DB) *EnrichmentCache {
	return &EnrichmentCache{db: db}
}

// Get returns the cached profile for domain if it has not expired
func (c *EnrichmentCache) Get(ctx context.Context, domain string) (*types.CompanyProfile, bool, error) {
	var profileJSON []byte
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT profile FROM enrichment_cache WHERE domain = $1 AND expires_at > $2`,
		enrichment.NormalizeDomain(domain), c.db.now(),
	).Scan(&profileJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var profile types.CompanyProfile
	if err := json.Unmarshal(profileJSON, &profile); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// Put upserts a profile and resets its expiry
func (c *EnrichmentCache) Put(ctx context.Context, domain string, profile *types.CompanyProfile, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = enrichment.DefaultCacheTTL
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	now := c.db.now()
	_, err = c.db.conn.ExecContext(ctx,
		`INSERT INTO enrichment_cache (domain, profile, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (domain) DO UPDATE
		 SET profile = EXCLUDED.profile, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		enrichment.NormalizeDomain(domain), profileJSON, now, now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed
func (c *EnrichmentCache) Purge(ctx context.Context) (int64, error) {
	result, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM enrichment_cache WHERE expires_at <= $1`, c.db.now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return result.RowsAffected()
}
