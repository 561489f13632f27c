package generationrequests

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/generation"
)

// The platform binding tag rejects unknown platforms at the edge, before the
// domain validation runs.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return generation.IsKnownPlatform(generation.Platform(fl.Field().String()))
		})
	}
}

// ContentGenerationRequest is the wire shape for a content generation call.
// Profile may be supplied inline or referenced by id; the handler resolves
// references through the brand resolver when one is configured.
type ContentGenerationRequest struct {
	ModelID          string                       `json:"model_id"`
	UserID           string                       `json:"user_id"`
	Profile          *generation.BusinessProfile  `json:"profile"`
	ProfileID        string                       `json:"profile_id"`
	Platform         string                       `json:"platform" binding:"required,platform"`
	BrandConsistency *generation.BrandConsistency `json:"brand_consistency"`
	ArtifactIDs      []string                     `json:"artifact_ids"`
	CustomPrompt     string                       `json:"custom_prompt"`

	// Criteria drives auto selection when model_id is empty.
	Criteria *SelectionCriteria `json:"criteria"`
}

// DesignGenerationRequest is the wire shape for a design generation call.
type DesignGenerationRequest struct {
	ModelID          string                       `json:"model_id"`
	UserID           string                       `json:"user_id"`
	Profile          *generation.BusinessProfile  `json:"profile"`
	ProfileID        string                       `json:"profile_id"`
	Platform         string                       `json:"platform" binding:"required,platform"`
	AspectRatio      string                       `json:"aspect_ratio"`
	Style            string                       `json:"style"`
	BrandConsistency *generation.BrandConsistency `json:"brand_consistency"`
	ArtifactIDs      []string                     `json:"artifact_ids"`
	CustomPrompt     string                       `json:"custom_prompt"`

	Criteria *SelectionCriteria `json:"criteria"`
}

// BatchContentRequest carries an ordered list of content generation requests.
type BatchContentRequest struct {
	Requests []ContentGenerationRequest `json:"requests" binding:"required,min=1,max=20,dive"`
}

// BatchDesignRequest carries an ordered list of design generation requests.
type BatchDesignRequest struct {
	Requests []DesignGenerationRequest `json:"requests" binding:"required,min=1,max=20,dive"`
}

// OrchestratedContentRequest is the A/B production entry point shape. The
// optional use_optimized flag pins the request to one path.
type OrchestratedContentRequest struct {
	ContentGenerationRequest
	UseOptimized *bool `json:"use_optimized"`
}

// SelectionCriteria mirrors the domain selection criteria with wire-friendly
// field types.
type SelectionCriteria struct {
	RequiredCapabilities []string `json:"required_capabilities"`
	PreferredTier        string   `json:"preferred_tier"`
	MaxCredits           *float64 `json:"max_credits"`
	Platform             string   `json:"platform"`
	Preference           string   `json:"preference"`
	UserPreference       string   `json:"user_preference"`
}

// ModelConfigOverride is the admin request shape for per-model config
// overrides. Zero-valued fields keep the bootstrap value.
type ModelConfigOverride struct {
	Provider          string   `json:"provider"`
	UpstreamModel     string   `json:"upstream_model"`
	FallbackProviders []string `json:"fallback_providers"`
	MaxRetries        int      `json:"max_retries"`
	TimeoutSeconds    int      `json:"timeout_seconds"`
	Temperature       float64  `json:"temperature"`
	MaxTokens         int      `json:"max_tokens"`
	CompressionLevel  int      `json:"compression_level"`
	EnhancementLevel  int      `json:"enhancement_level"`
}

func (o *ModelConfigOverride) ToDomain() generation.ModelConfig {
	cfg := generation.ModelConfig{
		Provider:         generation.ProviderKind(o.Provider),
		UpstreamModel:    o.UpstreamModel,
		MaxRetries:       o.MaxRetries,
		Timeout:          time.Duration(o.TimeoutSeconds) * time.Second,
		Temperature:      o.Temperature,
		MaxTokens:        o.MaxTokens,
		CompressionLevel: o.CompressionLevel,
		EnhancementLevel: o.EnhancementLevel,
	}
	for _, p := range o.FallbackProviders {
		cfg.FallbackProviders = append(cfg.FallbackProviders, generation.ProviderKind(p))
	}
	return cfg
}

func (r *ContentGenerationRequest) ToDomain() *generation.ContentRequest {
	return &generation.ContentRequest{
		ModelID:          r.ModelID,
		UserID:           r.UserID,
		Profile:          r.Profile,
		Platform:         generation.Platform(r.Platform),
		BrandConsistency: r.BrandConsistency,
		ArtifactIDs:      r.ArtifactIDs,
		CustomPrompt:     r.CustomPrompt,
	}
}

func (r *DesignGenerationRequest) ToDomain() *generation.DesignRequest {
	return &generation.DesignRequest{
		ModelID:          r.ModelID,
		UserID:           r.UserID,
		Profile:          r.Profile,
		Platform:         generation.Platform(r.Platform),
		AspectRatio:      r.AspectRatio,
		Style:            r.Style,
		BrandConsistency: r.BrandConsistency,
		ArtifactIDs:      r.ArtifactIDs,
		CustomPrompt:     r.CustomPrompt,
	}
}

func (c *SelectionCriteria) ToDomain() generation.SelectionCriteria {
	if c == nil {
		return generation.SelectionCriteria{}
	}
	criteria := generation.SelectionCriteria{
		PreferredTier:  generation.PricingTier(c.PreferredTier),
		Platform:       generation.Platform(c.Platform),
		Preference:     generation.QualityPreference(c.Preference),
		UserPreference: c.UserPreference,
	}
	for _, flag := range c.RequiredCapabilities {
		criteria.RequiredCapabilities = append(criteria.RequiredCapabilities, generation.CapabilityFlag(flag))
	}
	if c.MaxCredits != nil {
		max := decimal.NewFromFloat(*c.MaxCredits)
		criteria.MaxCredits = &max
	}
	return criteria
}
