package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/config"
	"github.com/jonathan/lead-personalizer/internal/db"
	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/pipeline"
	"github.com/jonathan/lead-personalizer/internal/server"
	"github.com/jonathan/lead-personalizer/internal/templates"
)

// newGenerator builds the model client; tests replace it
var newGenerator = func(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	modelCfg, err := cfg.ToLLM()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, modelCfg, cfg.LLM.APIKey)
}

// missingCredentials stands in for the model client when no credentials are set,
// so jobs fail as GenerationUnavailable instead of never starting
type missingCredentials struct {
	provider llm.Provider
}

func (m missingCredentials) Generate(context.Context, llm.Request) (string, error) {
	return "", &llm.APIError{Provider: m.provider, Message: "no credentials configured"}
}

func (m missingCredentials) ModelName() string { return "" }

// loadConfig layers the config file and environment over the defaults
func loadConfig() (config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// app holds the collaborators a command runs against
type app struct {
	config   config.Config
	logger   *zap.Logger
	db       *db.DB
	jobs     *db.JobLedger // nil without a database
	ledger   pipeline.Ledger
	reader   pipeline.JobReader
	cache    enrichment.Cache
	resolver *enrichment.Resolver
	pipeline *pipeline.Pipeline
	health   map[string]server.HealthCheck
	closers  []func() error
}

// newApp connects storage and builds the pipeline. withGenerator is false for
// commands that never generate copy.
func newApp(ctx context.Context, cfg config.Config, withGenerator bool) (*app, error) {
	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	a := &app{
		config: cfg,
		logger: logger,
		health: map[string]server.HealthCheck{},
	}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if err := a.openStorage(ctx); err != nil {
		_ = a.close()
		return nil, err
	}

	var provider enrichment.Provider
	if !cfg.Offline() {
		provider = enrichment.NewHTTPProvider(cfg.Enrichment.APIURL, cfg.Enrichment.APIKey, nil)
	} else {
		logger.Info("enrichment provider not configured, serving offline profiles")
	}
	a.resolver = enrichment.NewResolver(provider, a.cache, cfg.ToResolver(), logger)

	var adapter pipeline.ContentAdapter
	if withGenerator {
		gen, err := a.generator(ctx)
		if err != nil {
			_ = a.close()
			return nil, err
		}
		adapter = adaptation.NewAdapter(gen, cfg.ToAdaptation(), logger)
	}

	pcfg, err := cfg.ToPipeline()
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.pipeline = pipeline.New(a.resolver, templates.NewSelector(nil, logger), adapter, a.ledger, pcfg, logger)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	cfg := a.config

	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		a.db = database
		a.closers = append(a.closers, database.Close)
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx); err != nil {
				return err
			}
		}
		a.jobs = db.NewJobLedger(database)
		a.ledger, a.reader = a.jobs, a.jobs
		a.health["database"] = database.Ping
	} else {
		memory := pipeline.NewMemoryLedger()
		a.ledger, a.reader = memory, memory
	}

	switch {
	case cfg.Redis.URL != "":
		rc, err := enrichment.NewRedisCacheFromURL(ctx, cfg.Redis.URL)
		if err != nil {
			a.logger.Warn("redis unavailable, using in-memory enrichment cache", zap.Error(err))
			a.cache = enrichment.NewMemoryCache(nil)
			break
		}
		a.cache = rc
		a.closers = append(a.closers, rc.Close)
		a.health["redis"] = rc.Ping
	case a.db != nil:
		a.cache = db.NewEnrichmentCache(a.db)
	default:
		a.cache = enrichment.NewMemoryCache(nil)
	}
	return nil
}

func (a *app) generator(ctx context.Context) (adaptation.Generator, error) {
	if !a.config.CanGenerate() {
		a.logger.Warn("no LLM credentials configured, generation will be unavailable",
			zap.String("provider", a.config.LLM.Provider))
		return missingCredentials{provider: llm.Provider(a.config.LLM.Provider)}, nil
	}
	client, err := newGenerator(ctx, &a.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	return client, nil
}

// close releases resources in reverse order of acquisition
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
