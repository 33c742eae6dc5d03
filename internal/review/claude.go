package review

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chanfade/chanfade/internal/core"
)

// Claude is the Anthropic-backed review provider.
type Claude struct {
	client anthropic.Client
	model  string
}

// NewClaude creates a Claude provider.
func NewClaude(apiKey, model string) (*Claude, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Claude{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (c *Claude) Name() string {
	return "claude"
}

// Complete sends a single-turn request and returns the text response.
func (c *Claude) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", core.WrapError(core.ErrReviewFailed, err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Type != "text" {
		return "", core.WrapError(core.ErrReviewFailed, fmt.Errorf("empty response"))
	}
	return resp.Content[0].Text, nil
}
