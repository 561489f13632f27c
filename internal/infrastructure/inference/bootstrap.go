package inference

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nevis-server/internal/config"
	"nevis-server/internal/domain/generation"
)

// Bootstrap registers one Model per configured bootstrap entry. Each merged
// config passes the same validation used for runtime overrides, so a typo in
// the config file fails startup instead of the first request.
func Bootstrap(registry *generation.Registry, cfg *config.Config, clients ClientSet, log zerolog.Logger) error {
	for _, entry := range cfg.ModelBootstrapEntries() {
		desc := descriptorFromEntry(entry)
		if err := generation.ValidateConfig(desc.ID, desc.Config); err != nil {
			return err
		}
		if err := registry.Register(NewModel(desc, clients, log)); err != nil {
			return err
		}
		log.Info().
			Str("model_id", desc.ID).
			Str("status", string(desc.Status)).
			Str("provider", string(desc.Config.Provider)).
			Msg("registered generation model")
	}
	return nil
}

func descriptorFromEntry(entry config.ModelBootstrapEntry) *generation.Descriptor {
	platforms := make([]generation.Platform, 0, len(entry.SupportedPlatforms))
	for _, p := range entry.SupportedPlatforms {
		platforms = append(platforms, generation.Platform(p))
	}
	fallbacks := make([]generation.ProviderKind, 0, len(entry.FallbackProviders))
	for _, f := range entry.FallbackProviders {
		fallbacks = append(fallbacks, generation.ProviderKind(f))
	}

	return &generation.Descriptor{
		ID:      entry.ID,
		Name:    entry.Name,
		Version: entry.Version,
		Status:  generation.ModelStatus(entry.Status),
		Capabilities: generation.Capabilities{
			ContentGeneration:     entry.ContentGeneration,
			DesignGeneration:      entry.DesignGeneration,
			VideoGeneration:       entry.VideoGeneration,
			ArtifactSupport:       entry.ArtifactSupport,
			AdvancedPrompting:     entry.AdvancedPrompting,
			BrandConsistency:      entry.BrandConsistency,
			RealTimeContext:       entry.RealTimeContext,
			MaxQuality:            entry.MaxQuality,
			SupportedPlatforms:    platforms,
			SupportedAspectRatios: entry.SupportedAspectRatios,
		},
		Pricing: generation.Pricing{
			CreditsPerGeneration: decimal.NewFromFloat(entry.CreditsPerGeneration),
			CreditsPerDesign:     decimal.NewFromFloat(entry.CreditsPerDesign),
			Tier:                 generation.PricingTier(entry.Tier),
		},
		Config: generation.ModelConfig{
			Provider:          generation.ProviderKind(entry.Provider),
			UpstreamModel:     entry.UpstreamModel,
			FallbackProviders: fallbacks,
			MaxRetries:        entry.MaxRetries,
			Timeout:           entry.Timeout,
			Temperature:       entry.Temperature,
			MaxTokens:         entry.MaxTokens,
			CompressionLevel:  entry.CompressionLevel,
			EnhancementLevel:  entry.EnhancementLevel,
		},
	}
}
