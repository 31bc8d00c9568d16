package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generation is one raw completion plus the usage the provider reported.
type Generation struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator sends a single prompt to a language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	Generator
	Embedder
}

type GeminiOptions struct {
	APIKey      string
	Model       string
	EmbedModel  string
	Temperature float32
}

type geminiService struct {
	client      *genai.Client
	modelName   string
	embedModel  string
	temperature float32
}

func NewGeminiService(opts GeminiOptions) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-004"
	}

	return &geminiService{
		client:      client,
		modelName:   opts.Model,
		embedModel:  opts.EmbedModel,
		temperature: opts.Temperature,
	}, nil
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// Generate implements Generator.
func (g *geminiService) Generate(ctx context.Context, prompt string) (*Generation, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response generated (nil response)")
	}

	gen := &Generation{
		Text:  resp.Text(),
		Model: g.modelName,
	}
	if resp.ModelVersion != "" {
		gen.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		gen.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		gen.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return gen, nil
}
