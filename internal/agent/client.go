package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Completion is the text and usage returned by one model call.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// ModelClient is the minimal model-API surface the runners consume.
// Implementations must be safe for concurrent use.
type ModelClient interface {
	Complete(ctx context.Context, model, system, user string, maxTokens int) (*Completion, error)
}

// ClientConfig configures the Anthropic API client.
type ClientConfig struct {
	// APIKey is the Anthropic API key. Falls back to ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes calls through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional shared-config profile name.
	AWSProfile string
}

// Client wraps the Anthropic SDK for plain text completions.
type Client struct {
	inner   anthropic.Client
	bedrock bool
}

// NewClient creates a client for the direct API or AWS Bedrock.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &Client{
		inner:   anthropic.NewClient(opts...),
		bedrock: cfg.UseAWSBedrock,
	}, nil
}

// Complete sends one system+user exchange and returns the concatenated
// text blocks with token usage.
func (c *Client) Complete(ctx context.Context, model, system, user string, maxTokens int) (*Completion, error) {
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     c.resolveModel(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	return &Completion{
		Text:         text.String(),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// resolveModel translates a model ID for Bedrock when needed.
func (c *Client) resolveModel(model string) anthropic.Model {
	if c.bedrock {
		return translateModelForBedrock(anthropic.Model(model))
	}
	return anthropic.Model(model)
}

// bedrockModels maps standard model IDs to cross-region Bedrock
// inference profiles.
var bedrockModels = map[anthropic.Model]anthropic.Model{
	anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
	anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
	anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

// translateModelForBedrock converts a standard model ID to the Bedrock
// inference-profile format. IDs already in Bedrock format pass through.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	if translated, ok := bedrockModels[model]; ok {
		return translated
	}
	return model
}
