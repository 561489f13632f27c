package modelhandler

import (
	"context"

	"github.com/rs/zerolog"

	"nevis-server/internal/domain/generation"
	"nevis-server/internal/utils/platformerrors"
)

// ModelHandler exposes the registry catalog, auto-selection recommendations
// and the factory's per-model config overrides.
type ModelHandler struct {
	registry  *generation.Registry
	factory   *generation.Factory
	generator *generation.Service
	log       zerolog.Logger
}

func NewModelHandler(
	registry *generation.Registry,
	factory *generation.Factory,
	generator *generation.Service,
	log zerolog.Logger,
) *ModelHandler {
	return &ModelHandler{
		registry:  registry,
		factory:   factory,
		generator: generator,
		log:       log.With().Str("handler", "model").Logger(),
	}
}

// ModelSummary is the catalog entry returned by the list endpoints. The
// override flag tells admins which models run on a modified config.
type ModelSummary struct {
	Descriptor  *generation.Descriptor `json:"descriptor"`
	HasOverride bool                   `json:"has_override"`
}

// ListModels returns every registered model in registration order.
func (h *ModelHandler) ListModels(ctx context.Context) []ModelSummary {
	impls := h.registry.List()
	summaries := make([]ModelSummary, 0, len(impls))
	for _, impl := range impls {
		desc := impl.Descriptor()
		_, overridden := h.factory.Override(desc.ID)
		summaries = append(summaries, ModelSummary{Descriptor: desc, HasOverride: overridden})
	}
	return summaries
}

// ListAvailableModels probes availability and returns only live models.
func (h *ModelHandler) ListAvailableModels(ctx context.Context) []ModelSummary {
	impls := h.registry.ListAvailable(ctx)
	summaries := make([]ModelSummary, 0, len(impls))
	for _, impl := range impls {
		desc := impl.Descriptor()
		_, overridden := h.factory.Override(desc.ID)
		summaries = append(summaries, ModelSummary{Descriptor: desc, HasOverride: overridden})
	}
	return summaries
}

// GetModel returns one model's descriptor.
func (h *ModelHandler) GetModel(ctx context.Context, modelID string) (*generation.Descriptor, error) {
	impl := h.registry.Get(modelID)
	if impl == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound,
			"model not found: "+modelID, nil, "f2d81c4a-6e97-4b35-a0d8-3c5b9e7f1a42")
	}
	return impl.Descriptor(), nil
}

// Recommend returns the model auto selection would pick, or nil.
func (h *ModelHandler) Recommend(ctx context.Context, criteria generation.SelectionCriteria, design bool) *generation.Descriptor {
	if design {
		return h.generator.RecommendDesignModel(ctx, criteria)
	}
	return h.generator.RecommendContentModel(ctx, criteria)
}

// SetOverride validates and stores a config override for one model.
func (h *ModelHandler) SetOverride(ctx context.Context, modelID string, override generation.ModelConfig) error {
	if h.registry.Get(modelID) == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound,
			"model not found: "+modelID, nil, "b6a3f9d2-1c74-4e08-9f5b-d8e2c4a7b093")
	}
	if err := h.factory.SetOverride(modelID, override); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			err.Error(), err, "4c9e2b7f-8d35-4a61-b0c9-7f3d1e5a8c26")
	}
	h.log.Info().Str("model_id", modelID).Msg("config override applied")
	return nil
}

// ClearOverride removes a model's config override and evicts its cached
// instance so the next create runs on the bootstrap config.
func (h *ModelHandler) ClearOverride(ctx context.Context, modelID string) error {
	if h.registry.Get(modelID) == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound,
			"model not found: "+modelID, nil, "e8b5d1a7-3f62-4c90-8a4e-1b9c6d2f7e54")
	}
	h.factory.ClearOverride(modelID)
	h.log.Info().Str("model_id", modelID).Msg("config override cleared")
	return nil
}

// HealthCheck probes every cached instance and reports liveness per model.
func (h *ModelHandler) HealthCheck(ctx context.Context) map[string]bool {
	return h.factory.HealthCheck(ctx)
}
