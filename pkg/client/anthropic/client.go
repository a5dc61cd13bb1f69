// Package anthropic adapts the Anthropic Messages API to the neutral
// completion service interface. One Service instance is safe for concurrent
// use; each Complete call is one non-streaming request.
package anthropic

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 8192

	// webToolMaxUses caps how many times the model may invoke each
	// server-side web capability within one request.
	webToolMaxUses = 5
)

// Service talks to the Anthropic Messages API.
type Service struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	webTools  bool
}

var _ domain.CompletionService = (*Service)(nil)

type Option func(*Service)

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithWebTools grants the model the server-side web search and web fetch
// capabilities. They resolve inside the API; their output arrives already
// folded into the reply's content blocks and is never dispatched locally.
func WithWebTools() Option {
	return func(s *Service) { s.webTools = true }
}

// New creates a Service authenticated from the ANTHROPIC_API_KEY environment
// variable. A missing key is a configuration error, reported at construction
// rather than on first use.
func New(model string, opts ...Option) (*Service, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.Wrap(domain.ErrConfigurationMissing, "ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = defaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	s := &Service{
		client:    &client,
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) ModelID() string { return s.model }

// Complete performs one request/response round trip. The reply preserves the
// order of the service's content blocks.
func (s *Service) Complete(ctx context.Context, system string, conversation []message.Message, tools []message.Tool) (message.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages:  toAnthropicMessages(conversation),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	anthropicTools := convertTools(tools)
	if s.webTools {
		anthropicTools = append(anthropicTools, webToolParams()...)
	}
	if len(anthropicTools) > 0 {
		params.Tools = anthropicTools
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "anthropic request failed")
	}
	return fromAnthropicMessage(resp)
}

func webToolParams() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(webToolMaxUses),
			},
		},
		{
			OfWebFetchTool20250910: &anthropic.WebFetchTool20250910Param{
				MaxUses: anthropic.Int(webToolMaxUses),
			},
		},
	}
}
