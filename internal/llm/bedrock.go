package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// AnthropicVersion is the Bedrock messages API version
const AnthropicVersion = "bedrock-2023-05-31"

// DefaultMaxTokens applies when a request does not set MaxTokens
const DefaultMaxTokens = 2048

type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float32          `json:"temperature"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// BedrockClient implements Client for Claude models on AWS Bedrock
type BedrockClient struct {
	client bedrockInvoker
	config *Config
}

// NewBedrockClient loads AWS credentials from the default chain
func NewBedrockClient(ctx context.Context, config *Config) (*BedrockClient, error) {
	if config == nil {
		config = DefaultBedrockConfig()
	}
	region := config.Region
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newBedrockClient(bedrockruntime.NewFromConfig(cfg), config), nil
}

func newBedrockClient(invoker bedrockInvoker, config *Config) *BedrockClient {
	return &BedrockClient{client: invoker, config: config}
}

// Generate sends one messages request to Bedrock
func (c *BedrockClient) Generate(ctx context.Context, req Request) (string, error) {
	modelID := c.config.ActiveModel()
	if modelID == "" {
		return "", fmt.Errorf("no model configured for tier %s", c.config.Tier)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        maxTokens,
		System:           req.System,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContentBlock{{Type: "text", Text: req.Prompt}},
		}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", &APIError{Provider: ProviderBedrock, Message: "invoke model failed", Cause: err}
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", &APIError{Provider: ProviderBedrock, Message: "failed to parse response", Cause: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("bedrock returned no text blocks: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

// ModelName returns the active model id
func (c *BedrockClient) ModelName() string {
	return c.config.ActiveModel()
}

// Close is a no-op; the AWS client holds no resources
func (c *BedrockClient) Close() error {
	return nil
}
