package review

import (
	"context"
	"fmt"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/sashabaranov/go-openai"
)

// OpenAI is the OpenAI-backed review provider.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai"
}

// Complete sends a single-turn request and returns the text response.
func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: 2048,
	})
	if err != nil {
		return "", core.WrapError(core.ErrReviewFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", core.WrapError(core.ErrReviewFailed, fmt.Errorf("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}
