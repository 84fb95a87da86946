package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TFMV/solmap/ingest"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTokens bounds the size of the answer
	DefaultMaxTokens = 1024
)

// ErrMissingAPIKey is returned when the Anthropic oracle has no key
var ErrMissingAPIKey = errors.New("missing Anthropic API key (set ANTHROPIC_API_KEY or api_key)")

const promptTemplate = `Extract all causal relationships from the following text and return them as a JSON object.

Text: %q

Please identify:
1. All entities/concepts mentioned (these will be nodes)
2. All causal relationships between them (these will be edges)

Return ONLY a valid JSON object in this exact format, with no other text:
{
  "nodes": [
    {"id": "unique_id", "label": "entity name"}
  ],
  "edges": [
    {"from": "source_id", "to": "target_id"}
  ]
}

For example, for "work makes me anxious", return:
{
  "nodes": [
    {"id": "work", "label": "work"},
    {"id": "anxiety", "label": "anxiety"}
  ],
  "edges": [
    {"from": "work", "to": "anxiety"}
  ]
}

Extract implicit and explicit causal relationships. Be concise with node labels.`

// AnthropicOracle asks a Claude model for the graph
type AnthropicOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	decoder   *ingest.JSONProcessor
}

// NewAnthropicOracle creates an oracle backed by the Messages API
func NewAnthropicOracle(cfg Config) (*AnthropicOracle, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &AnthropicOracle{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		decoder:   ingest.NewJSONProcessor(),
	}, nil
}

// Name returns the oracle name
func (a *AnthropicOracle) Name() string {
	return "anthropic"
}

// Extract sends the text to the model and decodes the JSON in its answer
func (a *AnthropicOracle) Extract(ctx context.Context, text string) (*ingest.Payload, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(promptTemplate, text))),
		},
	})
	if err != nil {
		return nil, &Error{Oracle: a.Name(), Err: fmt.Errorf("API request failed: %w", err)}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return a.decoder.ProcessData([]byte(sb.String()))
}
