package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nevis-server/internal/infrastructure/logger"
)

const DefaultModelConfigFile = "config/models.yml"

// ModelBootstrapEntry describes a generation model that should be registered
// on startup.
type ModelBootstrapEntry struct {
	ID                   string
	Name                 string
	Version              string
	Status               string
	Tier                 string
	CreditsPerGeneration float64
	CreditsPerDesign     float64

	MaxQuality            int
	ContentGeneration     bool
	DesignGeneration      bool
	VideoGeneration       bool
	ArtifactSupport       bool
	AdvancedPrompting     bool
	BrandConsistency      bool
	RealTimeContext       bool
	SupportedPlatforms    []string
	SupportedAspectRatios []string

	Provider          string
	UpstreamModel     string
	FallbackProviders []string
	MaxRetries        int
	Timeout           time.Duration
	Temperature       float64
	MaxTokens         int
	CompressionLevel  int
	EnhancementLevel  int
}

// ModelBootstrapConfig maintains all configured model sets.
type ModelBootstrapConfig struct {
	sets map[string][]ModelBootstrapEntry
}

// ModelsForSet returns a copy of the models defined for the requested set.
func (c *ModelBootstrapConfig) ModelsForSet(name string) []ModelBootstrapEntry {
	if c == nil {
		return nil
	}
	set := strings.TrimSpace(name)
	if set == "" {
		set = "default"
	}
	list := c.sets[set]
	if len(list) == 0 {
		return nil
	}
	result := make([]ModelBootstrapEntry, len(list))
	copy(result, list)
	return result
}

type modelConfigDocument struct {
	Models map[string][]modelConfigEntry `yaml:"models"`
}

type modelConfigEntry struct {
	ID                   string  `yaml:"id"`
	Name                 string  `yaml:"name"`
	Version              string  `yaml:"version"`
	Status               string  `yaml:"status"`
	Enable               *bool   `yaml:"enable"`
	Tier                 string  `yaml:"tier"`
	CreditsPerGeneration float64 `yaml:"credits_per_generation"`
	CreditsPerDesign     float64 `yaml:"credits_per_design"`

	Capabilities struct {
		MaxQuality            int      `yaml:"max_quality"`
		ContentGeneration     bool     `yaml:"content_generation"`
		DesignGeneration      bool     `yaml:"design_generation"`
		VideoGeneration       bool     `yaml:"video_generation"`
		ArtifactSupport       bool     `yaml:"artifact_support"`
		AdvancedPrompting     bool     `yaml:"advanced_prompting"`
		BrandConsistency      bool     `yaml:"brand_consistency"`
		RealTimeContext       bool     `yaml:"real_time_context"`
		SupportedPlatforms    []string `yaml:"supported_platforms"`
		SupportedAspectRatios []string `yaml:"supported_aspect_ratios"`
	} `yaml:"capabilities"`

	Config struct {
		Provider          string   `yaml:"provider"`
		UpstreamModel     string   `yaml:"upstream_model"`
		FallbackProviders []string `yaml:"fallback_providers"`
		MaxRetries        int      `yaml:"max_retries"`
		Timeout           string   `yaml:"timeout"`
		Temperature       float64  `yaml:"temperature"`
		MaxTokens         int      `yaml:"max_tokens"`
		CompressionLevel  int      `yaml:"compression_level"`
		EnhancementLevel  int      `yaml:"enhancement_level"`
	} `yaml:"config"`
}

// LoadModelBootstrapConfig parses the yaml file at the provided path.
func LoadModelBootstrapConfig(path string) (*ModelBootstrapConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model config path is empty")
	}

	log := logger.GetLogger()
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read model config %q: %w", cleanPath, err)
	}
	log.Info().Str("path", cleanPath).Msg("loading model config file")

	var doc modelConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model config %q: %w", cleanPath, err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("model config %q has no models defined", cleanPath)
	}

	result := &ModelBootstrapConfig{sets: make(map[string][]ModelBootstrapEntry)}
	for rawSet, entries := range doc.Models {
		setName := strings.TrimSpace(rawSet)
		if setName == "" || len(entries) == 0 {
			continue
		}
		for idx, entry := range entries {
			if entry.Enable != nil && !*entry.Enable {
				log.Info().Str("set", setName).Str("id", entry.ID).Msg("skipping model (enable=false)")
				continue
			}
			normalized, err := normalizeModelEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("models.%s[%d]: %w", setName, idx, err)
			}
			result.sets[setName] = append(result.sets[setName], normalized)
		}
	}

	if len(result.sets) == 0 {
		return nil, fmt.Errorf("model config %q has no valid model entries", cleanPath)
	}
	return result, nil
}

func normalizeModelEntry(entry modelConfigEntry) (ModelBootstrapEntry, error) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return ModelBootstrapEntry{}, errors.New("id is required")
	}
	provider := strings.TrimSpace(entry.Config.Provider)
	if provider == "" {
		return ModelBootstrapEntry{}, errors.New("config.provider is required")
	}
	upstream := strings.TrimSpace(entry.Config.UpstreamModel)
	if upstream == "" {
		return ModelBootstrapEntry{}, errors.New("config.upstream_model is required")
	}

	timeout := 60 * time.Second
	if raw := strings.TrimSpace(entry.Config.Timeout); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return ModelBootstrapEntry{}, fmt.Errorf("config.timeout: %w", err)
		}
		timeout = parsed
	}

	name := strings.TrimSpace(entry.Name)
	if name == "" {
		name = id
	}
	status := strings.TrimSpace(entry.Status)
	if status == "" {
		status = "stable"
	}
	tier := strings.TrimSpace(entry.Tier)
	if tier == "" {
		tier = "basic"
	}

	return ModelBootstrapEntry{
		ID:                   id,
		Name:                 name,
		Version:              strings.TrimSpace(entry.Version),
		Status:               status,
		Tier:                 tier,
		CreditsPerGeneration: entry.CreditsPerGeneration,
		CreditsPerDesign:     entry.CreditsPerDesign,

		MaxQuality:            entry.Capabilities.MaxQuality,
		ContentGeneration:     entry.Capabilities.ContentGeneration,
		DesignGeneration:      entry.Capabilities.DesignGeneration,
		VideoGeneration:       entry.Capabilities.VideoGeneration,
		ArtifactSupport:       entry.Capabilities.ArtifactSupport,
		AdvancedPrompting:     entry.Capabilities.AdvancedPrompting,
		BrandConsistency:      entry.Capabilities.BrandConsistency,
		RealTimeContext:       entry.Capabilities.RealTimeContext,
		SupportedPlatforms:    entry.Capabilities.SupportedPlatforms,
		SupportedAspectRatios: entry.Capabilities.SupportedAspectRatios,

		Provider:          provider,
		UpstreamModel:     upstream,
		FallbackProviders: entry.Config.FallbackProviders,
		MaxRetries:        entry.Config.MaxRetries,
		Timeout:           timeout,
		Temperature:       entry.Config.Temperature,
		MaxTokens:         entry.Config.MaxTokens,
		CompressionLevel:  entry.Config.CompressionLevel,
		EnhancementLevel:  entry.Config.EnhancementLevel,
	}, nil
}
