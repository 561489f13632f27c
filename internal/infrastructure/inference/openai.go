package inference

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"nevis-server/internal/domain/generation"
)

// OpenAIClient is the fallback provider, wrapping the official-compatible SDK.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAIClient) Kind() generation.ProviderKind { return generation.ProviderOpenAI }

func (o *OpenAIClient) GenerateText(ctx context.Context, prompt string, params TextParams) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) GenerateImage(ctx context.Context, prompt string, params ImageParams) (string, error) {
	size := "1024x1024"
	switch params.AspectRatio {
	case "9:16", "4:5":
		size = "1024x1792"
	case "16:9":
		size = "1792x1024"
	}
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", errors.New("openai returned no image data")
	}
	return resp.Data[0].URL, nil
}

func (o *OpenAIClient) Ping(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	return err
}
