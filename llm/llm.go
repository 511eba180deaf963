// Package llm adapts hosted language models to the interfaces.Generator contract
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/interfaces"
)

// ErrEmptyCompletion is returned when the provider answers without any text
var ErrEmptyCompletion = errors.New("empty completion")

// Client is a generator that owns a connection to its provider
type Client interface {
	interfaces.Generator
	io.Closer
}

// New returns the generator selected by cfg.Provider
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		g, err := NewOpenAIGenerator(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderGemini:
		g, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
