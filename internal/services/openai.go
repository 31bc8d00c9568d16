package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

type openAIService struct {
	client      *openai.Client
	modelName   string
	temperature float32
}

func NewOpenAIService(opts OpenAIOptions) Generator {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	return &openAIService{
		client:      openai.NewClientWithConfig(cfg),
		modelName:   opts.Model,
		temperature: opts.Temperature,
	}
}

// Generate implements Generator.
func (o *openAIService) Generate(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.modelName,
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	model := resp.Model
	if model == "" {
		model = o.modelName
	}

	return &Generation{
		Text:         resp.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
