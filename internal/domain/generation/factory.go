package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nevis-server/internal/utils/platformerrors"
)

// FieldError names a single invalid field in a model config.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ConfigValidationError aggregates every field error found in one validation
// pass, so callers can report all problems at once instead of fixing them one
// round-trip at a time.
type ConfigValidationError struct {
	ModelID string       `json:"model_id"`
	Fields  []FieldError `json:"fields"`
}

func (e *ConfigValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid config for model %s: %s", e.ModelID, strings.Join(parts, "; "))
}

// Factory hands out ready-to-use model instances. Instances are cached per
// model id; a cached instance is re-probed on every Create so a dead upstream
// is evicted instead of being served stale.
type Factory struct {
	registry *Registry
	log      zerolog.Logger

	mu        sync.Mutex
	cache     map[string]Implementation
	overrides map[string]ModelConfig
}

func NewFactory(registry *Registry, log zerolog.Logger) *Factory {
	return &Factory{
		registry:  registry,
		log:       log.With().Str("component", "model_factory").Logger(),
		cache:     make(map[string]Implementation),
		overrides: make(map[string]ModelConfig),
	}
}

// Create returns a live instance for the given model id. The cached instance
// is returned only if its availability probe still passes; otherwise it is
// evicted and rebuilt from the registry with any stored override applied.
func (f *Factory) Create(ctx context.Context, modelID string) (Implementation, error) {
	f.mu.Lock()
	cached, ok := f.cache[modelID]
	f.mu.Unlock()

	if ok {
		alive, err := cached.IsAvailable(ctx)
		if err == nil && alive {
			return cached, nil
		}
		f.log.Warn().Str("model_id", modelID).Err(err).Msg("cached model instance went unavailable, evicting")
		f.evict(modelID)
	}

	base := f.registry.Get(modelID)
	if base == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"model not found: "+modelID, nil, "2a7f9c4d-6b1e-4e83-95a0-7d3c8f1b5e20")
	}

	instance := base
	f.mu.Lock()
	override, hasOverride := f.overrides[modelID]
	f.mu.Unlock()
	if hasOverride {
		merged := mergeConfig(base.Descriptor().Config, override)
		instance = base.WithConfig(merged)
	}

	alive, err := instance.IsAvailable(ctx)
	if err != nil || !alive {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			"model unavailable: "+modelID, err, "8e1d5b72-3c9f-4a06-b4d8-1f6a0c2e7d21")
	}

	f.mu.Lock()
	f.cache[modelID] = instance
	f.mu.Unlock()
	return instance, nil
}

// CreateMany builds instances for every requested id concurrently. Failures
// are partial: the returned map holds only the ids that came up, and the
// error map explains the rest. Both maps are never nil.
func (f *Factory) CreateMany(ctx context.Context, modelIDs []string) (map[string]Implementation, map[string]error) {
	instances := make(map[string]Implementation, len(modelIDs))
	failures := make(map[string]error)
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentProbes)
	for _, id := range modelIDs {
		id := id
		eg.Go(func() error {
			impl, err := f.Create(egCtx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[id] = err
			} else {
				instances[id] = impl
			}
			return nil
		})
	}
	_ = eg.Wait()
	return instances, failures
}

// SetOverride stores a config override for a model. The override is validated
// merged into the model's base config, so a partial override can never leave
// the model with an invalid effective config. Storing an override evicts any
// cached instance so the next Create picks it up.
func (f *Factory) SetOverride(modelID string, override ModelConfig) error {
	base := f.registry.Get(modelID)
	if base == nil {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"model not found: "+modelID, nil, "d4b8e1f6-9a25-4c73-8e0b-6f1d3a9c5b22")
	}

	merged := mergeConfig(base.Descriptor().Config, override)
	if err := ValidateConfig(modelID, merged); err != nil {
		return err
	}

	f.mu.Lock()
	f.overrides[modelID] = override
	delete(f.cache, modelID)
	f.mu.Unlock()

	f.log.Info().Str("model_id", modelID).Msg("model config override stored")
	return nil
}

// ClearOverride removes a stored override and evicts the cached instance so
// the model reverts to its base config on next use. Clearing a model with no
// override is a no-op.
func (f *Factory) ClearOverride(modelID string) {
	f.mu.Lock()
	_, had := f.overrides[modelID]
	delete(f.overrides, modelID)
	delete(f.cache, modelID)
	f.mu.Unlock()
	if had {
		f.log.Info().Str("model_id", modelID).Msg("model config override cleared")
	}
}

// Override returns the stored override for a model and whether one exists.
func (f *Factory) Override(modelID string) (ModelConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.overrides[modelID]
	return cfg, ok
}

// HealthCheck probes every cached instance and evicts the dead ones. It
// returns per-model health for reporting. The periodic sweep calls this so
// a provider outage heals itself without a restart.
func (f *Factory) HealthCheck(ctx context.Context) map[string]bool {
	f.mu.Lock()
	snapshot := make(map[string]Implementation, len(f.cache))
	for id, impl := range f.cache {
		snapshot[id] = impl
	}
	f.mu.Unlock()

	health := make(map[string]bool, len(snapshot))
	for id, impl := range snapshot {
		alive, err := impl.IsAvailable(ctx)
		healthy := err == nil && alive
		health[id] = healthy
		if !healthy {
			f.log.Warn().Str("model_id", id).Err(err).Msg("health sweep evicting unavailable model instance")
			f.evict(id)
		}
	}
	return health
}

func (f *Factory) evict(modelID string) {
	f.mu.Lock()
	delete(f.cache, modelID)
	f.mu.Unlock()
}

// mergeConfig lays override on top of base, field by field. Zero-valued
// override fields keep the base value.
func mergeConfig(base, override ModelConfig) ModelConfig {
	merged := base
	if override.Provider != "" {
		merged.Provider = override.Provider
	}
	if override.UpstreamModel != "" {
		merged.UpstreamModel = override.UpstreamModel
	}
	if override.FallbackProviders != nil {
		merged.FallbackProviders = append([]ProviderKind(nil), override.FallbackProviders...)
	}
	if override.MaxRetries != 0 {
		merged.MaxRetries = override.MaxRetries
	}
	if override.Timeout != 0 {
		merged.Timeout = override.Timeout
	}
	if override.Temperature != 0 {
		merged.Temperature = override.Temperature
	}
	if override.MaxTokens != 0 {
		merged.MaxTokens = override.MaxTokens
	}
	if override.CompressionLevel != 0 {
		merged.CompressionLevel = override.CompressionLevel
	}
	if override.EnhancementLevel != 0 {
		merged.EnhancementLevel = override.EnhancementLevel
	}
	return merged
}

// ValidateConfig checks a full effective config and reports every violation
// at once via ConfigValidationError.
func ValidateConfig(modelID string, cfg ModelConfig) error {
	var fields []FieldError

	if !KnownProviders[cfg.Provider] {
		fields = append(fields, FieldError{Field: "provider", Message: "unknown provider: " + string(cfg.Provider)})
	}
	for _, fallback := range cfg.FallbackProviders {
		if !KnownProviders[fallback] {
			fields = append(fields, FieldError{Field: "fallback_providers", Message: "unknown provider: " + string(fallback)})
		}
	}
	if strings.TrimSpace(cfg.UpstreamModel) == "" {
		fields = append(fields, FieldError{Field: "upstream_model", Message: "must not be empty"})
	}
	if cfg.Timeout <= 0 {
		fields = append(fields, FieldError{Field: "timeout", Message: "must be positive"})
	}
	if cfg.MaxRetries < 0 {
		fields = append(fields, FieldError{Field: "max_retries", Message: "must not be negative"})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		fields = append(fields, FieldError{Field: "temperature", Message: "must be between 0 and 2"})
	}
	if cfg.MaxTokens <= 0 {
		fields = append(fields, FieldError{Field: "max_tokens", Message: "must be positive"})
	}
	if cfg.CompressionLevel < 0 || cfg.CompressionLevel > 100 {
		fields = append(fields, FieldError{Field: "compression_level", Message: "must be between 0 and 100"})
	}
	if cfg.EnhancementLevel < 0 || cfg.EnhancementLevel > 10 {
		fields = append(fields, FieldError{Field: "enhancement_level", Message: "must be between 0 and 10"})
	}

	if len(fields) > 0 {
		return &ConfigValidationError{ModelID: modelID, Fields: fields}
	}
	return nil
}
