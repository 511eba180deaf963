package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator produces completions through the Gemini API.
// The client is created once and shared across requests.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator dials the Gemini API with the configured key
func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:    client,
		modelName: strings.TrimSpace(cfg.GeminiModel),
	}, nil
}

func (g *GeminiGenerator) Name() string { return config.ProviderGemini }

// Generate configures a model handle for this request and asks for JSON output
func (g *GeminiGenerator) Generate(ctx context.Context, req interfaces.GenerationRequest) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.GenerationConfig = generationConfig(req)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.SystemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.UserText))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini generate: %w", ErrEmptyCompletion)
	}
	return txt, nil
}

// Close releases the underlying gRPC connection
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func generationConfig(req interfaces.GenerationRequest) genai.GenerationConfig {
	gc := genai.GenerationConfig{
		Temperature:      ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = ptr(int32(req.MaxTokens))
	}
	return gc
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptr[T any](v T) *T { return &v }
