package inference

import (
	"nevis-server/internal/config"
	"nevis-server/internal/domain/generation"
)

// NewClientSet builds one client per provider kind that has credentials
// configured. A kind without credentials is simply absent from the set; a
// model whose whole provider chain is absent will probe unavailable.
func NewClientSet(cfg *config.Config) ClientSet {
	set := make(ClientSet)
	if cfg.GeminiAPIKey != "" {
		set[generation.ProviderGemini] = NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		set[generation.ProviderOpenAI] = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
	return set
}
