package generation

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelStatus describes the maturity of a registered model.
type ModelStatus string

const (
	StatusStable      ModelStatus = "stable"
	StatusEnhanced    ModelStatus = "enhanced"
	StatusDevelopment ModelStatus = "development"
	StatusBeta        ModelStatus = "beta"
	StatusDeprecated  ModelStatus = "deprecated"
)

// PricingTier groups models into billing tiers.
type PricingTier string

const (
	TierBasic      PricingTier = "basic"
	TierPremium    PricingTier = "premium"
	TierEnterprise PricingTier = "enterprise"
)

// ProviderKind identifies the upstream generative provider a model is bound to.
type ProviderKind string

const (
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
	ProviderCustom ProviderKind = "custom" // for any customer-provided endpoint
)

// KnownProviders is the allow-list used by config validation. Requests naming
// a provider outside this set never reach the network.
var KnownProviders = map[ProviderKind]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
	ProviderCustom: true,
}

// CapabilityFlag names a single boolean capability on a descriptor.
type CapabilityFlag string

const (
	CapabilityContentGeneration CapabilityFlag = "content_generation"
	CapabilityDesignGeneration  CapabilityFlag = "design_generation"
	CapabilityVideoGeneration   CapabilityFlag = "video_generation"
	CapabilityArtifactSupport   CapabilityFlag = "artifact_support"
	CapabilityAdvancedPrompting CapabilityFlag = "advanced_prompting"
	CapabilityBrandConsistency  CapabilityFlag = "brand_consistency"
	CapabilityRealTimeContext   CapabilityFlag = "real_time_context"
)

// Capabilities describes what a model can do and where its output can be used.
type Capabilities struct {
	ContentGeneration bool `json:"content_generation"`
	DesignGeneration  bool `json:"design_generation"`
	VideoGeneration   bool `json:"video_generation"`
	ArtifactSupport   bool `json:"artifact_support"`
	AdvancedPrompting bool `json:"advanced_prompting"`
	BrandConsistency  bool `json:"brand_consistency"`
	RealTimeContext   bool `json:"real_time_context"`

	// MaxQuality is the model's output ceiling on a 1..10 scale.
	MaxQuality int `json:"max_quality"`

	SupportedPlatforms    []Platform `json:"supported_platforms"`
	SupportedAspectRatios []string   `json:"supported_aspect_ratios"`
}

// Has reports whether the named capability flag is set.
func (c Capabilities) Has(flag CapabilityFlag) bool {
	switch flag {
	case CapabilityContentGeneration:
		return c.ContentGeneration
	case CapabilityDesignGeneration:
		return c.DesignGeneration
	case CapabilityVideoGeneration:
		return c.VideoGeneration
	case CapabilityArtifactSupport:
		return c.ArtifactSupport
	case CapabilityAdvancedPrompting:
		return c.AdvancedPrompting
	case CapabilityBrandConsistency:
		return c.BrandConsistency
	case CapabilityRealTimeContext:
		return c.RealTimeContext
	default:
		return false
	}
}

// SupportsPlatform reports whether the model can target the given platform.
func (c Capabilities) SupportsPlatform(p Platform) bool {
	for _, supported := range c.SupportedPlatforms {
		if supported == p {
			return true
		}
	}
	return false
}

// SupportsAspectRatio reports whether the model can render the given ratio.
func (c Capabilities) SupportsAspectRatio(ratio string) bool {
	for _, supported := range c.SupportedAspectRatios {
		if supported == ratio {
			return true
		}
	}
	return false
}

// Pricing holds the per-call credit cost of a model.
type Pricing struct {
	CreditsPerGeneration decimal.Decimal `json:"credits_per_generation"`
	CreditsPerDesign     decimal.Decimal `json:"credits_per_design"`
	Tier                 PricingTier     `json:"tier"`
}

// ModelConfig is the tuning configuration a model runs with. Overrides merge
// into it field by field; a zero field means "keep the base value".
type ModelConfig struct {
	Provider          ProviderKind   `json:"provider"`
	UpstreamModel     string         `json:"upstream_model"`
	FallbackProviders []ProviderKind `json:"fallback_providers,omitempty"`
	MaxRetries        int            `json:"max_retries"`
	Timeout           time.Duration  `json:"timeout"`
	Temperature       float64        `json:"temperature"`
	MaxTokens         int            `json:"max_tokens"`
	CompressionLevel  int            `json:"compression_level"`
	EnhancementLevel  int            `json:"enhancement_level"`
}

// Descriptor is the static identity, capability and pricing record of one
// generation model. It is immutable once registered; configuration overrides
// produce a new descriptor via WithConfig rather than mutating in place.
type Descriptor struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Status       ModelStatus  `json:"status"`
	Capabilities Capabilities `json:"capabilities"`
	Pricing      Pricing      `json:"pricing"`
	Config       ModelConfig  `json:"config"`
}

// WithConfig clones the descriptor with a replacement config. The receiver is
// left untouched so concurrent holders of the original never observe a change.
func (d *Descriptor) WithConfig(cfg ModelConfig) *Descriptor {
	clone := *d
	clone.Capabilities.SupportedPlatforms = append([]Platform(nil), d.Capabilities.SupportedPlatforms...)
	clone.Capabilities.SupportedAspectRatios = append([]string(nil), d.Capabilities.SupportedAspectRatios...)
	cfg.FallbackProviders = append([]ProviderKind(nil), cfg.FallbackProviders...)
	clone.Config = cfg
	return &clone
}

// ProviderChain returns the primary provider followed by the declared
// fallbacks, without duplicates.
func (c ModelConfig) ProviderChain() []ProviderKind {
	chain := make([]ProviderKind, 0, 1+len(c.FallbackProviders))
	seen := map[ProviderKind]bool{}
	for _, kind := range append([]ProviderKind{c.Provider}, c.FallbackProviders...) {
		if kind == "" || seen[kind] {
			continue
		}
		seen[kind] = true
		chain = append(chain, kind)
	}
	return chain
}
