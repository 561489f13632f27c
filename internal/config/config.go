package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for content-api.
type Config struct {
	// HTTP Server
	HTTPPort    int           `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int           `env:"METRICS_PORT" envDefault:"9091"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// PostgreSQL. An empty DATABASE_URL keeps the credit ledger in memory,
	// which is the development default.
	DatabaseURL          string `env:"DATABASE_URL"`
	DBPostgresqlRead1DSN string `env:"DB_POSTGRESQL_READ1_DSN"`
	AutoMigrate          bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Generation providers
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	// Model bootstrap
	ModelConfigFile string                `env:"MODEL_CONFIG_FILE" envDefault:"config/models.yml"`
	ModelConfigSet  string                `env:"MODEL_CONFIG_SET" envDefault:"default"`
	ModelBootstrap  *ModelBootstrapConfig `env:"-"`

	// A/B testing
	ABTestingEnabled        bool          `env:"AB_TESTING_ENABLED" envDefault:"true"`
	OptimizedTrafficPercent float64       `env:"OPTIMIZED_TRAFFIC_PERCENT" envDefault:"50"`
	StableModelID           string        `env:"STABLE_MODEL_ID" envDefault:"revo-1.0"`
	OptimizedModelID        string        `env:"OPTIMIZED_MODEL_ID" envDefault:"revo-1.5"`
	AlertProcessingTime     time.Duration `env:"ALERT_PROCESSING_TIME" envDefault:"20s"`

	// Credits
	StartingCredits        float64 `env:"STARTING_CREDITS" envDefault:"100"`
	MonthlyGenerationQuota int     `env:"MONTHLY_GENERATION_QUOTA" envDefault:"40"`

	// Model health sweep
	HealthSweepEnabled         bool `env:"HEALTH_SWEEP_ENABLED" envDefault:"true"`
	HealthSweepIntervalMinutes int  `env:"HEALTH_SWEEP_INTERVAL_MINUTES" envDefault:"5"`

	// Brand profile resolver
	BrandResolveURL     string        `env:"BRAND_RESOLVE_URL"`
	BrandResolveTimeout time.Duration `env:"BRAND_RESOLVE_TIMEOUT" envDefault:"5s"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"content-api"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"nevis"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.OptimizedTrafficPercent < 0 || cfg.OptimizedTrafficPercent > 100 {
		return nil, fmt.Errorf("OPTIMIZED_TRAFFIC_PERCENT must be in [0,100], got %v", cfg.OptimizedTrafficPercent)
	}

	if cfg.BrandResolveURL != "" {
		if _, err := url.ParseRequestURI(cfg.BrandResolveURL); err != nil {
			return nil, fmt.Errorf("invalid BRAND_RESOLVE_URL: %w", err)
		}
	}

	cfg.ModelConfigSet = strings.TrimSpace(cfg.ModelConfigSet)
	if cfg.ModelConfigSet == "" {
		cfg.ModelConfigSet = "default"
	}

	bootstrap, err := LoadModelBootstrapConfig(cfg.ModelConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load model configs: %w", err)
	}
	cfg.ModelBootstrap = bootstrap
	if len(bootstrap.ModelsForSet(cfg.ModelConfigSet)) == 0 {
		return nil, fmt.Errorf("model config set %q is missing or empty in %s", cfg.ModelConfigSet, cfg.ModelConfigFile)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

// ModelBootstrapEntries returns the configured model definitions for the active set.
func (c *Config) ModelBootstrapEntries() []ModelBootstrapEntry {
	if c == nil || c.ModelBootstrap == nil {
		return nil
	}
	return c.ModelBootstrap.ModelsForSet(c.ModelConfigSet)
}
