package service

import (
	"context"
	"fmt"

	ragodomain "github.com/liliang-cn/rago/v2/pkg/domain"
	"github.com/liliang-cn/rago/v2/pkg/providers"

	"github.com/elevateai/elevate/internal/config"
	"github.com/elevateai/elevate/internal/domain"
)

// LLMProvider adapts rago's generator streaming to the ResponseProvider
// contract. Any OpenAI-compatible endpoint works; the model and
// sampling options come from config.
type LLMProvider struct {
	cfg       config.LLMConfig
	generator ragodomain.Generator
}

// NewLLMProvider creates a streaming provider from the configured
// OpenAI-compatible endpoint.
func NewLLMProvider(ctx context.Context, cfg config.LLMConfig) (*LLMProvider, error) {
	factory := providers.NewFactory()

	providerCfg := &ragodomain.OpenAIProviderConfig{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		LLMModel:       cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
	}

	generator, err := factory.CreateLLMProvider(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return &LLMProvider{cfg: cfg, generator: generator}, nil
}

// Stream generates a response for prompt, delivering text fragments in
// order to onFragment. Returns nil after the final fragment.
func (p *LLMProvider) Stream(ctx context.Context, prompt string, onFragment func(string)) error {
	opts := &ragodomain.GenerationOptions{
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	if err := p.generator.Stream(ctx, prompt, opts, onFragment); err != nil {
		return fmt.Errorf("generation stream failed: %w", err)
	}
	return nil
}

// UnconfiguredProvider stands in when no LLM endpoint is reachable at
// startup: every stream fails immediately and surfaces as a notice, so
// the rest of the service stays usable.
type UnconfiguredProvider struct{}

// Stream always fails
func (UnconfiguredProvider) Stream(ctx context.Context, prompt string, onFragment func(string)) error {
	return fmt.Errorf("no response provider configured")
}

var _ domain.ResponseProvider = (*LLMProvider)(nil)
var _ domain.ResponseProvider = UnconfiguredProvider{}
