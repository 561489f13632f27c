package inference

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/generation"
)

type fakeClient struct {
	kind      generation.ProviderKind
	text      string
	image     string
	err       error
	textCalls atomic.Int64
	pingErr   error
}

func (f *fakeClient) Kind() generation.ProviderKind { return f.kind }

func (f *fakeClient) GenerateText(ctx context.Context, prompt string, params TextParams) (string, error) {
	f.textCalls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeClient) GenerateImage(ctx context.Context, prompt string, params ImageParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.image, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func inferenceDescriptor() *generation.Descriptor {
	return &generation.Descriptor{
		ID:      "revo-1.5",
		Name:    "Revo 1.5",
		Version: "1.5",
		Status:  generation.StatusEnhanced,
		Capabilities: generation.Capabilities{
			ContentGeneration:     true,
			DesignGeneration:      true,
			ArtifactSupport:       false,
			MaxQuality:            8,
			SupportedPlatforms:    []generation.Platform{generation.PlatformInstagram},
			SupportedAspectRatios: []string{"1:1", "9:16"},
		},
		Pricing: generation.Pricing{
			CreditsPerGeneration: decimal.NewFromInt(4),
			Tier:                 generation.TierPremium,
		},
		Config: generation.ModelConfig{
			Provider:          generation.ProviderGemini,
			UpstreamModel:     "gemini-2.5-flash",
			FallbackProviders: []generation.ProviderKind{generation.ProviderOpenAI},
			MaxRetries:        1,
			Timeout:           5 * time.Second,
			Temperature:       0.7,
			MaxTokens:         2048,
		},
	}
}

func inferenceRequest() *generation.ContentRequest {
	return &generation.ContentRequest{
		ModelID:  "revo-1.5",
		Profile:  &generation.BusinessProfile{Name: "Samaki Cookies", Industry: "food"},
		Platform: generation.PlatformInstagram,
	}
}

func TestGenerateContentParsesFencedJSON(t *testing.T) {
	gemini := &fakeClient{
		kind: generation.ProviderGemini,
		text: "```json\n{\"headline\":\"Fresh!\",\"caption\":\"Warm cookies daily\",\"hashtags\":[\"#cookies\"],\"call_to_action\":\"Order now\"}\n```",
	}
	model := NewModel(inferenceDescriptor(), ClientSet{generation.ProviderGemini: gemini}, zerolog.Nop())

	resp, err := model.GenerateContent(context.Background(), inferenceRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Data.Headline != "Fresh!" || resp.Data.Caption != "Warm cookies daily" {
		t.Fatalf("parsed post = %+v", resp.Data)
	}
	if resp.Metadata.QualityScore != 8 {
		t.Fatalf("quality = %v, want the descriptor ceiling 8", resp.Metadata.QualityScore)
	}
}

func TestGenerateContentDegradesOnUnparseableOutput(t *testing.T) {
	gemini := &fakeClient{kind: generation.ProviderGemini, text: "Here is a lovely caption for you"}
	model := NewModel(inferenceDescriptor(), ClientSet{generation.ProviderGemini: gemini}, zerolog.Nop())

	resp, err := model.GenerateContent(context.Background(), inferenceRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Data.Caption != "Here is a lovely caption for you" {
		t.Fatalf("caption = %q", resp.Data.Caption)
	}
	if resp.Metadata.QualityScore != 6 {
		t.Fatalf("quality = %v, want ceiling minus parse penalty", resp.Metadata.QualityScore)
	}
}

func TestProviderChainFallsBack(t *testing.T) {
	gemini := &fakeClient{kind: generation.ProviderGemini, err: errors.New("quota exceeded")}
	fallback := &fakeClient{kind: generation.ProviderOpenAI, text: `{"caption":"from fallback"}`}
	model := NewModel(inferenceDescriptor(), ClientSet{
		generation.ProviderGemini: gemini,
		generation.ProviderOpenAI: fallback,
	}, zerolog.Nop())

	resp, err := model.GenerateContent(context.Background(), inferenceRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Data.Caption != "from fallback" {
		t.Fatalf("caption = %q", resp.Data.Caption)
	}
	// MaxRetries 1 means two attempts against the primary before moving on.
	if gemini.textCalls.Load() != 2 {
		t.Fatalf("primary attempts = %d, want 2", gemini.textCalls.Load())
	}
}

func TestProviderChainExhaustedReturnsLastError(t *testing.T) {
	gemini := &fakeClient{kind: generation.ProviderGemini, err: errors.New("down")}
	model := NewModel(inferenceDescriptor(), ClientSet{generation.ProviderGemini: gemini}, zerolog.Nop())

	if _, err := model.GenerateContent(context.Background(), inferenceRequest()); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestValidateContentRejectsArtifacts(t *testing.T) {
	model := NewModel(inferenceDescriptor(), ClientSet{}, zerolog.Nop())
	req := inferenceRequest()
	req.ArtifactIDs = []string{"a1", "a2", "a3", "a4", "a5"}
	if err := model.ValidateContent(req); err == nil {
		t.Fatal("artifact references must be rejected when the descriptor lacks artifact support")
	}
}

func TestValidateDesignRejectsUnsupportedAspectRatio(t *testing.T) {
	model := NewModel(inferenceDescriptor(), ClientSet{}, zerolog.Nop())
	req := &generation.DesignRequest{
		ModelID:     "revo-1.5",
		Profile:     &generation.BusinessProfile{Name: "Samaki Cookies"},
		Platform:    generation.PlatformInstagram,
		AspectRatio: "21:9",
	}
	if err := model.ValidateDesign(req); err == nil {
		t.Fatal("unsupported aspect ratio must be rejected")
	}
}

func TestIsAvailableUsesFallbackPing(t *testing.T) {
	gemini := &fakeClient{kind: generation.ProviderGemini, pingErr: errors.New("unreachable")}
	fallback := &fakeClient{kind: generation.ProviderOpenAI}
	model := NewModel(inferenceDescriptor(), ClientSet{
		generation.ProviderGemini: gemini,
		generation.ProviderOpenAI: fallback,
	}, zerolog.Nop())

	alive, err := model.IsAvailable(context.Background())
	if err != nil || !alive {
		t.Fatalf("alive=%v err=%v, want available via fallback", alive, err)
	}
}
