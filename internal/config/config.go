// Package config provides configuration loading and validation for the
// personalizer CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/pipeline"
	"github.com/jonathan/lead-personalizer/internal/server"
	"github.com/jonathan/lead-personalizer/internal/server/ratelimit"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

// Duration is a time.Duration that reads "2s"-style strings from YAML and JSON
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func parseDuration(s string) (Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// LLMConfig selects the generation backend
type LLMConfig struct {
	Provider string   `yaml:"provider" json:"provider,omitempty"`
	APIKey   string   `yaml:"api_key" json:"api_key,omitempty"` // Gemini only
	Model    string   `yaml:"model" json:"model,omitempty"`     // overrides the standard tier
	Region   string   `yaml:"region" json:"region,omitempty"`   // Bedrock only
	Timeout  Duration `yaml:"timeout" json:"timeout,omitempty"` // per generator call
}

// EnrichmentConfig configures the company-profile provider and its polling budget
type EnrichmentConfig struct {
	APIURL        string   `yaml:"api_url" json:"api_url,omitempty"`
	APIKey        string   `yaml:"api_key" json:"api_key,omitempty"`
	UseMock       bool     `yaml:"use_mock" json:"use_mock,omitempty"`
	PollInterval  Duration `yaml:"poll_interval" json:"poll_interval,omitempty"`
	MaxAttempts   int      `yaml:"max_attempts" json:"max_attempts,omitempty"`
	LookupTimeout Duration `yaml:"lookup_timeout" json:"lookup_timeout,omitempty"`
	CacheTTL      Duration `yaml:"cache_ttl" json:"cache_ttl,omitempty"`
}

// RedisConfig points at the shared enrichment cache
type RedisConfig struct {
	URL string `yaml:"url" json:"url,omitempty"`
}

// DatabaseConfig points at the job ledger database
type DatabaseConfig struct {
	URL     string `yaml:"url" json:"url,omitempty"`
	Migrate bool   `yaml:"migrate" json:"migrate,omitempty"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port           int      `yaml:"port" json:"port,omitempty"`
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout,omitempty"`
	RateLimit      int      `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute,omitempty"`
	Whitelist      []string `yaml:"whitelist" json:"whitelist,omitempty"`
	Blacklist      []string `yaml:"blacklist" json:"blacklist,omitempty"`
}

// PipelineConfig configures job orchestration
type PipelineConfig struct {
	SLA            Duration `yaml:"sla" json:"sla,omitempty"`
	ValidationMode string   `yaml:"validation_mode" json:"validation_mode,omitempty"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"` // "json" or "console"
}

// Config represents the configuration that can be loaded from a YAML or JSON file.
// All fields are optional; missing values use defaults or come from the environment.
type Config struct {
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	Enrichment EnrichmentConfig `yaml:"enrichment" json:"enrichment"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider: string(llm.ProviderGemini),
			Timeout:  Duration(adaptation.DefaultTimeout),
		},
		Enrichment: EnrichmentConfig{
			PollInterval:  Duration(enrichment.DefaultPollInterval),
			MaxAttempts:   enrichment.DefaultMaxPollAttempts,
			LookupTimeout: Duration(enrichment.DefaultLookupTimeout),
			CacheTTL:      Duration(enrichment.DefaultCacheTTL),
		},
		Server: ServerConfig{
			Port:           server.DefaultPort,
			RequestTimeout: Duration(server.DefaultRequestTimeout),
			RateLimit:      ratelimit.DefaultPersonalizeLimit,
		},
		Pipeline: PipelineConfig{
			SLA:            Duration(pipeline.DefaultSLA),
			ValidationMode: string(validation.ModeAdvisory),
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig loads configuration from a YAML or JSON file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	return &cfg, nil
}

// Env variable names read by ApplyEnv
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvLLMProvider    = "LLM_PROVIDER"
	EnvBedrockModelID = "BEDROCK_MODEL_ID"
	EnvAWSRegion      = "AWS_REGION"
	EnvRADAPIURL      = "RAD_API_URL"
	EnvRADAPIKey      = "RAD_API_KEY"
	EnvUseMock        = "USE_MOCK_ENRICHMENT"
	EnvRedisURL       = "REDIS_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvLogLevel       = "LOG_LEVEL"
	EnvValidationMode = "VALIDATION_MODE"
)

// ApplyEnv overrides fields with environment variables that are set and non-empty.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvGeminiAPIKey); ok {
		c.LLM.APIKey = v
	}
	if v, ok := get(EnvLLMProvider); ok {
		c.LLM.Provider = v
	}
	if v, ok := get(EnvBedrockModelID); ok {
		c.LLM.Model = v
	}
	if v, ok := get(EnvAWSRegion); ok {
		c.LLM.Region = v
	}
	if v, ok := get(EnvRADAPIURL); ok {
		c.Enrichment.APIURL = v
	}
	if v, ok := get(EnvRADAPIKey); ok {
		c.Enrichment.APIKey = v
	}
	if v, ok := get(EnvUseMock); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be a boolean, got %q", EnvUseMock, v)
		}
		c.Enrichment.UseMock = b
	}
	if v, ok := get(EnvRedisURL); ok {
		c.Redis.URL = v
	}
	if v, ok := get(EnvDatabaseURL); ok {
		c.Database.URL = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := get(EnvValidationMode); ok {
		c.Pipeline.ValidationMode = v
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Missing credentials are not an error; the CLI degrades to offline enrichment.
func (c *Config) Validate() error {
	if _, err := llm.ConfigFor(c.LLM.Provider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Pipeline.ValidationMode != "" {
		if _, err := validation.ParseMode(c.Pipeline.ValidationMode); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("config error: 'llm.timeout' must be non-negative")
	}
	if c.Enrichment.PollInterval < 0 {
		return fmt.Errorf("config error: 'enrichment.poll_interval' must be non-negative")
	}
	if c.Enrichment.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'enrichment.max_attempts' must be non-negative")
	}
	if c.Enrichment.LookupTimeout < 0 {
		return fmt.Errorf("config error: 'enrichment.lookup_timeout' must be non-negative")
	}
	if c.Enrichment.CacheTTL < 0 {
		return fmt.Errorf("config error: 'enrichment.cache_ttl' must be non-negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 0 and 65535")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config error: 'server.rate_limit_per_minute' must be non-negative")
	}
	if c.Pipeline.SLA < 0 {
		return fmt.Errorf("config error: 'pipeline.sla' must be non-negative")
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: 'logging.format' must be 'json' or 'console'")
	}

	return nil
}

// MergeWithDefaults returns a new Config with values from c taking precedence over defaults.
// Only non-zero values from c are used.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := defaults

	if c.LLM.Provider != "" {
		result.LLM.Provider = c.LLM.Provider
	}
	if c.LLM.APIKey != "" {
		result.LLM.APIKey = c.LLM.APIKey
	}
	if c.LLM.Model != "" {
		result.LLM.Model = c.LLM.Model
	}
	if c.LLM.Region != "" {
		result.LLM.Region = c.LLM.Region
	}
	if c.LLM.Timeout != 0 {
		result.LLM.Timeout = c.LLM.Timeout
	}

	if c.Enrichment.APIURL != "" {
		result.Enrichment.APIURL = c.Enrichment.APIURL
	}
	if c.Enrichment.APIKey != "" {
		result.Enrichment.APIKey = c.Enrichment.APIKey
	}
	if c.Enrichment.UseMock {
		result.Enrichment.UseMock = true
	}
	if c.Enrichment.PollInterval != 0 {
		result.Enrichment.PollInterval = c.Enrichment.PollInterval
	}
	if c.Enrichment.MaxAttempts != 0 {
		result.Enrichment.MaxAttempts = c.Enrichment.MaxAttempts
	}
	if c.Enrichment.LookupTimeout != 0 {
		result.Enrichment.LookupTimeout = c.Enrichment.LookupTimeout
	}
	if c.Enrichment.CacheTTL != 0 {
		result.Enrichment.CacheTTL = c.Enrichment.CacheTTL
	}

	if c.Redis.URL != "" {
		result.Redis.URL = c.Redis.URL
	}
	if c.Database.URL != "" {
		result.Database.URL = c.Database.URL
	}
	if c.Database.Migrate {
		result.Database.Migrate = true
	}

	if c.Server.Port != 0 {
		result.Server.Port = c.Server.Port
	}
	if c.Server.RequestTimeout != 0 {
		result.Server.RequestTimeout = c.Server.RequestTimeout
	}
	if c.Server.RateLimit != 0 {
		result.Server.RateLimit = c.Server.RateLimit
	}
	if len(c.Server.Whitelist) > 0 {
		result.Server.Whitelist = c.Server.Whitelist
	}
	if len(c.Server.Blacklist) > 0 {
		result.Server.Blacklist = c.Server.Blacklist
	}

	if c.Pipeline.SLA != 0 {
		result.Pipeline.SLA = c.Pipeline.SLA
	}
	if c.Pipeline.ValidationMode != "" {
		result.Pipeline.ValidationMode = c.Pipeline.ValidationMode
	}

	if c.Logging.Level != "" {
		result.Logging.Level = c.Logging.Level
	}
	if c.Logging.Format != "" {
		result.Logging.Format = c.Logging.Format
	}

	return result
}

// Offline reports whether enrichment should skip the provider entirely
func (c *Config) Offline() bool {
	return c.Enrichment.UseMock || c.Enrichment.APIURL == ""
}

// ToResolver converts the enrichment section
func (c *Config) ToResolver() *enrichment.ResolverConfig {
	return &enrichment.ResolverConfig{
		PollInterval:    c.Enrichment.PollInterval.Std(),
		MaxPollAttempts: c.Enrichment.MaxAttempts,
		LookupTimeout:   c.Enrichment.LookupTimeout.Std(),
		CacheTTL:        c.Enrichment.CacheTTL.Std(),
		Offline:         c.Offline(),
	}
}

// ToPipeline converts the pipeline section
func (c *Config) ToPipeline() (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if c.Pipeline.SLA > 0 {
		cfg.SLA = c.Pipeline.SLA.Std()
	}
	if c.Pipeline.ValidationMode != "" {
		mode, err := validation.ParseMode(c.Pipeline.ValidationMode)
		if err != nil {
			return nil, err
		}
		cfg.ValidationMode = mode
	}
	return cfg, nil
}

// ToLLM converts the llm section into a model configuration
func (c *Config) ToLLM() (*llm.Config, error) {
	cfg, err := llm.ConfigFor(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if c.LLM.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.LLM.Model)
	}
	if c.LLM.Region != "" && cfg.Provider == llm.ProviderBedrock {
		cfg.Region = c.LLM.Region
	}
	return cfg, nil
}

// ToAdaptation converts the llm section into generation settings
func (c *Config) ToAdaptation() *adaptation.Config {
	cfg := adaptation.DefaultConfig()
	if c.LLM.Timeout > 0 {
		cfg.Timeout = c.LLM.Timeout.Std()
	}
	return cfg
}

// CanGenerate reports whether the configured provider has credentials to try.
// Bedrock resolves credentials from the AWS chain, so it is always attempted.
func (c *Config) CanGenerate() bool {
	if llm.Provider(strings.ToLower(c.LLM.Provider)) == llm.ProviderBedrock {
		return true
	}
	return c.LLM.APIKey != ""
}

// ToRateLimit converts the server section's limiter settings
func (c *Config) ToRateLimit() *ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	if c.Server.RateLimit > 0 {
		cfg.EndpointConfigs = ratelimit.PersonalizeEndpoints(c.Server.RateLimit)
	}
	cfg.Whitelist = ratelimit.IPSet(c.Server.Whitelist)
	cfg.Blacklist = ratelimit.IPSet(c.Server.Blacklist)
	return cfg
}

// ToServer converts the server section
func (c *Config) ToServer() server.Config {
	return server.Config{
		Port:           c.Server.Port,
		RequestTimeout: c.Server.RequestTimeout.Std(),
		RateLimit:      c.ToRateLimit(),
	}
}
