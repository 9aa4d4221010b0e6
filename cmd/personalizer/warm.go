package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/lead-personalizer/internal/db"
	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// DefaultWarmConcurrency bounds concurrent provider lookups
const DefaultWarmConcurrency = 4

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Resolve domains into the enrichment cache",
	Long: `Resolves a list of domains concurrently so later jobs hit the cache.
With a database configured, expired cache rows are purged first.`,
	RunE: runWarm,
}

var (
	warmDomains     string
	warmConcurrency int
	warmPurge       bool
)

func init() {
	warmCmd.Flags().StringVarP(&warmDomains, "domains", "d", "", "Comma-separated domains to resolve (required)")
	warmCmd.Flags().IntVarP(&warmConcurrency, "concurrency", "c", DefaultWarmConcurrency, "Maximum concurrent lookups")
	warmCmd.Flags().BoolVar(&warmPurge, "purge", true, "Purge expired database cache rows before warming")

	if err := warmCmd.MarkFlagRequired("domains"); err != nil {
		panic(fmt.Sprintf("failed to mark domains flag as required: %v", err))
	}

	rootCmd.AddCommand(warmCmd)
}

type warmResult struct {
	Domain  string                  `json:"domain"`
	Offline bool                    `json:"offline"`
	Summary types.EnrichmentSummary `json:"enrichment"`
}

// splitDomains normalizes and de-duplicates a comma-separated list
func splitDomains(list string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range strings.Split(list, ",") {
		d = enrichment.NormalizeDomain(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// warm resolves every domain with at most limit lookups in flight.
// Results keep the order of domains.
func warm(ctx context.Context, resolver *enrichment.Resolver, domains []string, limit int) ([]warmResult, error) {
	if limit <= 0 {
		limit = DefaultWarmConcurrency
	}
	results := make([]warmResult, len(domains))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, domain := range domains {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			profile := resolver.Resolve(ctx, domain, "")
			results[i] = warmResult{
				Domain:  domain,
				Offline: enrichment.IsOffline(profile),
				Summary: profile.Summary(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runWarm(cmd *cobra.Command, _ []string) error {
	domains := splitDomains(warmDomains)
	if len(domains) == 0 {
		return fmt.Errorf("no domains given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	if cfg.Offline() {
		a.logger.Warn("enrichment provider not configured, offline profiles are not cached")
	}

	if warmPurge {
		if cache, ok := a.cache.(*db.EnrichmentCache); ok {
			purged, err := cache.Purge(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge enrichment cache: %w", err)
			}
			a.logger.Info("purged expired enrichment rows", zap.Int64("rows", purged))
		}
	}

	results, err := warm(ctx, a.resolver, domains, warmConcurrency)
	if err != nil {
		return fmt.Errorf("warm interrupted: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), "", map[string]any{
		"domains": results,
		"count":   len(results),
	})
}
