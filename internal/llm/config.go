// Package llm provides centralized LLM configuration and client abstractions.
// This package enables switching between model tiers and providers.
package llm

import (
	"fmt"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction
	TierLite ModelTier = "lite"
	// TierStandard is for structured copywriting with strict output shape
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderBedrock is Anthropic Claude served through AWS Bedrock
	ProviderBedrock Provider = "bedrock"
)

// DefaultRegion is used for Bedrock when no region is configured
const DefaultRegion = "us-east-1"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Tier selects which model the client generates with
	Tier ModelTier
	// Region applies to Bedrock only
	Region string
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Tier: TierStandard,
	}
}

// DefaultBedrockConfig returns the default Bedrock configuration
func DefaultBedrockConfig() *Config {
	return &Config{
		Provider: ProviderBedrock,
		Models: map[ModelTier]string{
			TierLite:     "anthropic.claude-3-haiku-20240307-v1:0",
			TierStandard: "anthropic.claude-3-5-sonnet-20240620-v1:0",
			TierAdvanced: "anthropic.claude-3-opus-20240229-v1:0",
		},
		Tier:   TierStandard,
		Region: DefaultRegion,
	}
}

// ConfigFor returns the default configuration for a provider name
func ConfigFor(provider string) (*Config, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(provider))) {
	case "", ProviderGemini:
		return DefaultGeminiConfig(), nil
	case ProviderBedrock:
		return DefaultBedrockConfig(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// ActiveModel returns the model for the configured tier
func (c *Config) ActiveModel() string {
	tier := c.Tier
	if tier == "" {
		tier = TierStandard
	}
	return c.GetModel(tier)
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
		Tier:     c.Tier,
		Region:   c.Region,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
