package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the provider answers without any text
var ErrEmptyResponse = errors.New("no text in response")

// Request is a single generation call
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON response where supported
	JSON bool
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate returns the model's text for one request
	Generate(ctx context.Context, req Request) (string, error)
	// ModelName identifies the model used for generation
	ModelName() string
	// Close releases any resources held by the client
	Close() error
}

// APIError represents a provider call failure
type APIError struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s api error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewClient creates a new LLM client based on configuration.
// apiKey is required for Gemini; Bedrock uses the AWS credential chain.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderBedrock:
		return NewBedrockClient(ctx, config)
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}
