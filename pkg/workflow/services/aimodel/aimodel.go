// Package aimodel is the default aiModel service collaborator: a
// thin wrapper over github.com/tmc/langchaingo's multi-provider llms.Model
// abstraction, selecting a backend per Config.Provider. workflow.ProcessCase
// does not apply ProcessingOptions.AIModelConfig to it.
package aimodel

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider is the aiModelConfig.provider enum.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderLocal     Provider = "local"
	ProviderAzure     Provider = "azure"
)

// Config is the aiModelConfig payload.
type Config struct {
	Model       string
	Provider    Provider
	Temperature float64
	MaxTokens   int
}

// Model implements agent.AIModel by delegating to a langchaingo llms.Model.
type Model struct {
	backend llms.Model
	cfg     Config
}

// New constructs a Model for the requested provider. Local and Azure
// currently route through the OpenAI-compatible client (langchaingo models
// both as OpenAI-API-compatible endpoints distinguished only by base URL,
// which callers configure via the provider's own environment variables);
// unknown providers are rejected rather than silently defaulting, since a
// misconfigured provider routing to the wrong backend is worse than a
// startup error.
func New(cfg Config) (*Model, error) {
	var backend llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOpenAI, ProviderLocal, ProviderAzure:
		opts := []openai.Option{}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		backend, err = openai.New(opts...)
	case ProviderAnthropic:
		opts := []anthropic.Option{}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		backend, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("aimodel: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("aimodel: construct %s client: %w", cfg.Provider, err)
	}

	return &Model{backend: backend, cfg: cfg}, nil
}

// Complete satisfies agent.AIModel.
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	callOpts := []llms.CallOption{}
	if m.cfg.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(m.cfg.Temperature))
	}
	if m.cfg.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(m.cfg.MaxTokens))
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, m.backend, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("aimodel: generate: %w", err)
	}
	return resp, nil
}
