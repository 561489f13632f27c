package domain

import (
	"github.com/google/wire"

	"nevis-server/internal/config"
	"nevis-server/internal/domain/credit"
	"nevis-server/internal/domain/generation"
	"nevis-server/internal/domain/orchestrator"
)

var ServiceProvider = wire.NewSet(
	// Generation core
	generation.NewRegistry,
	generation.NewFactory,
	generation.NewService,

	// Production orchestrator
	ProvideOrchestratorConfig,
	ProvideRandSource,
	orchestrator.New,

	// Credit wrapper
	ProvideCreditConfig,
	credit.NewService,
)

func ProvideOrchestratorConfig(cfg *config.Config) orchestrator.Config {
	return orchestrator.Config{
		ABTestingEnabled:        cfg.ABTestingEnabled,
		OptimizedTrafficPercent: cfg.OptimizedTrafficPercent,
		StableModelID:           cfg.StableModelID,
		OptimizedModelID:        cfg.OptimizedModelID,
		AlertProcessingTime:     cfg.AlertProcessingTime,
	}
}

func ProvideRandSource() orchestrator.RandSource {
	return orchestrator.SystemRand()
}

func ProvideCreditConfig(cfg *config.Config) credit.Config {
	return credit.Config{
		MonthlyQuota: cfg.MonthlyGenerationQuota,
	}
}
