package llm

import (
	"context"
	"fmt"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIGenerator produces completions through an OpenAI-compatible chat API
type OpenAIGenerator struct {
	model    llms.Model
	jsonMode bool
}

// NewOpenAIGenerator builds the langchaingo client from configuration
func NewOpenAIGenerator(cfg config.LLMConfig) (*OpenAIGenerator, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.OpenAIModel),
		openai.WithToken(cfg.OpenAIAPIKey),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return newOpenAIGenerator(model, cfg.OpenAIJSONMode), nil
}

func newOpenAIGenerator(model llms.Model, jsonMode bool) *OpenAIGenerator {
	return &OpenAIGenerator{model: model, jsonMode: jsonMode}
}

func (g *OpenAIGenerator) Name() string { return config.ProviderOpenAI }

// Generate sends the system prompt and the note as a two-message chat
func (g *OpenAIGenerator) Generate(ctx context.Context, req interfaces.GenerationRequest) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserText),
	}

	options := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
	}
	if g.jsonMode {
		options = append(options, llms.WithJSONMode())
	}
	if req.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := g.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("openai generate: %w", ErrEmptyCompletion)
	}
	return resp.Choices[0].Content, nil
}

// Close is a no-op; the HTTP client holds no resources needing release
func (g *OpenAIGenerator) Close() error { return nil }
