package generation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// stubModel is a fully scriptable implementation used across the package
// tests. Zero-value behavior: available, accepts every request, returns an
// empty success payload.
type stubModel struct {
	desc *Descriptor

	available    atomic.Bool
	availableErr error
	probeCount   atomic.Int64

	contentValidateErr error
	designValidateErr  error

	contentFn func(ctx context.Context, req *ContentRequest) (*Response[*Post], error)
	designFn  func(ctx context.Context, req *DesignRequest) (*Response[*DesignVariant], error)
}

func newStubModel(desc *Descriptor) *stubModel {
	m := &stubModel{desc: desc}
	m.available.Store(true)
	return m
}

func (m *stubModel) Descriptor() *Descriptor { return m.desc }

func (m *stubModel) IsAvailable(ctx context.Context) (bool, error) {
	m.probeCount.Add(1)
	if m.availableErr != nil {
		return false, m.availableErr
	}
	return m.available.Load(), nil
}

func (m *stubModel) WithConfig(cfg ModelConfig) Implementation {
	clone := *m
	clone.desc = m.desc.WithConfig(cfg)
	return &clone
}

func (m *stubModel) ValidateContent(req *ContentRequest) error { return m.contentValidateErr }

func (m *stubModel) GenerateContent(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
	if m.contentFn != nil {
		return m.contentFn(ctx, req)
	}
	return Succeed(m.desc.ID, &Post{Caption: "caption from " + m.desc.ID}, 5*time.Millisecond, 8.0, nil), nil
}

func (m *stubModel) ValidateDesign(req *DesignRequest) error { return m.designValidateErr }

func (m *stubModel) GenerateDesign(ctx context.Context, req *DesignRequest) (*Response[*DesignVariant], error) {
	if m.designFn != nil {
		return m.designFn(ctx, req)
	}
	return Succeed(m.desc.ID, &DesignVariant{ImageRef: "ref-" + m.desc.ID, AspectRatio: "1:1"}, 5*time.Millisecond, 8.0, nil), nil
}

// contentOnlyModel deliberately lacks the design interface.
type contentOnlyModel struct {
	desc *Descriptor
}

func (m *contentOnlyModel) Descriptor() *Descriptor                       { return m.desc }
func (m *contentOnlyModel) IsAvailable(ctx context.Context) (bool, error) { return true, nil }
func (m *contentOnlyModel) WithConfig(cfg ModelConfig) Implementation {
	return &contentOnlyModel{desc: m.desc.WithConfig(cfg)}
}
func (m *contentOnlyModel) ValidateContent(req *ContentRequest) error { return nil }
func (m *contentOnlyModel) GenerateContent(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
	return Succeed(m.desc.ID, &Post{Caption: "content only"}, time.Millisecond, 7.0, nil), nil
}

var errUpstreamDown = errors.New("upstream connection refused")

func testDescriptor(id string, mutate func(*Descriptor)) *Descriptor {
	d := &Descriptor{
		ID:      id,
		Name:    "Test " + id,
		Version: "1.0",
		Status:  StatusStable,
		Capabilities: Capabilities{
			ContentGeneration:  true,
			DesignGeneration:   true,
			MaxQuality:         7,
			SupportedPlatforms: []Platform{PlatformInstagram, PlatformFacebook},
			SupportedAspectRatios: []string{
				"1:1", "9:16",
			},
		},
		Pricing: Pricing{
			CreditsPerGeneration: decimal.NewFromInt(3),
			CreditsPerDesign:     decimal.NewFromInt(4),
			Tier:                 TierBasic,
		},
		Config: ModelConfig{
			Provider:      ProviderGemini,
			UpstreamModel: "gemini-2.5-flash",
			MaxRetries:    2,
			Timeout:       30 * time.Second,
			Temperature:   0.7,
			MaxTokens:     2048,
		},
	}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func contentRequest(modelID string) *ContentRequest {
	return &ContentRequest{
		ModelID:  modelID,
		UserID:   "user-1",
		Profile:  &BusinessProfile{Name: "Samaki Cookies", Industry: "food"},
		Platform: PlatformInstagram,
	}
}

func designRequest(modelID string) *DesignRequest {
	return &DesignRequest{
		ModelID:     modelID,
		UserID:      "user-1",
		Profile:     &BusinessProfile{Name: "Samaki Cookies", Industry: "food"},
		Platform:    PlatformInstagram,
		AspectRatio: "1:1",
	}
}
