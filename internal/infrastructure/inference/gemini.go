package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"resty.dev/v3"

	"nevis-server/internal/domain/generation"
	"nevis-server/internal/utils/httpclients"
	"nevis-server/internal/utils/platformerrors"
)

const geminiAPIVersion = "v1beta"

// GeminiClient talks to the Google Generative Language API.
type GeminiClient struct {
	client *resty.Client
}

func NewGeminiClient(baseURL, apiKey string) *GeminiClient {
	client := httpclients.NewClient("GeminiClient")
	client.SetBaseURL(baseURL)
	client.SetHeader("x-goog-api-key", apiKey)
	return &GeminiClient{client: client}
}

func (g *GeminiClient) Kind() generation.ProviderKind { return generation.ProviderGemini }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GeminiClient) generate(ctx context.Context, model string, body geminiRequest) (*geminiResponse, error) {
	var result geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/%s/models/%s:generateContent", geminiAPIVersion, model))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"gemini request failed", err, "f3a1c8d5-2e7b-4904-b6a3-9d0c5e8f1b30")
	}
	if resp.IsError() {
		msg := "gemini returned " + resp.Status()
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			msg, nil, "7b4e2f90-8c1d-4a56-9e38-0f5a3d7c2b31")
	}
	if len(result.Candidates) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"gemini returned no candidates", nil, "1d6f9a23-4b8e-4c07-a5d1-2e7b0c4f8a32")
	}
	return &result, nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string, params TextParams) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		},
	}
	result, err := g.generate(ctx, params.Model, body)
	if err != nil {
		return "", err
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", errors.New("gemini candidate contained no text part")
}

func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string, params ImageParams) (string, error) {
	text := prompt
	if params.AspectRatio != "" {
		text = fmt.Sprintf("%s\n\nAspect ratio: %s", prompt, params.AspectRatio)
	}
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	result, err := g.generate(ctx, params.Model, body)
	if err != nil {
		return "", err
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return fmt.Sprintf("data:%s;base64,%s", part.InlineData.MimeType, part.InlineData.Data), nil
		}
	}
	return "", errors.New("gemini candidate contained no image part")
}

// Ping lists models, which exercises auth and connectivity without spending
// generation quota.
func (g *GeminiClient) Ping(ctx context.Context) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/models", geminiAPIVersion))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gemini ping returned %s", resp.Status())
	}
	return nil
}
