// Package review produces an LLM critique of a finished trading session.
package review

import (
	"context"
	"fmt"

	"github.com/chanfade/chanfade/internal/config"
)

// Provider is a single-turn completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewProvider creates the provider selected by configuration.
func NewProvider(cfg config.ReviewConfig) (Provider, error) {
	switch cfg.Provider {
	case "claude":
		return NewClaude(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unknown review provider: %s", cfg.Provider)
	}
}
