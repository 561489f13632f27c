package generationhandler

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"nevis-server/internal/domain/credit"
	"nevis-server/internal/domain/generation"
	"nevis-server/internal/domain/orchestrator"
	"nevis-server/internal/infrastructure/brandresolver"
	"nevis-server/internal/infrastructure/metrics"
	"nevis-server/internal/utils/platformerrors"
)

// GenerationHandler drives the billed generation flows. Pinned-model and
// auto-selected requests go through the credit wrapper; the orchestrated
// production path is exposed separately.
type GenerationHandler struct {
	credits      *credit.Service
	generator    *generation.Service
	orchestrator *orchestrator.Orchestrator
	resolver     brandresolver.Resolver
	log          zerolog.Logger
}

func NewGenerationHandler(
	credits *credit.Service,
	generator *generation.Service,
	abOrchestrator *orchestrator.Orchestrator,
	resolver brandresolver.Resolver,
	log zerolog.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		credits:      credits,
		generator:    generator,
		orchestrator: abOrchestrator,
		resolver:     resolver,
		log:          log.With().Str("handler", "generation").Logger(),
	}
}

// ResolveProfile fills in a business profile referenced by id. Inline
// profiles pass through untouched; a reference without a configured resolver
// is an explicit failure, never a silent one.
func (h *GenerationHandler) ResolveProfile(ctx context.Context, inline *generation.BusinessProfile, profileID string) (*generation.BusinessProfile, error) {
	if inline != nil {
		return inline, nil
	}
	if profileID == "" {
		return nil, nil
	}
	if h.resolver == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			"profile references require a configured brand resolver", nil, "3e7c2d91-48af-4b06-9c53-d1e8f7a24b60")
	}
	profile, err := h.resolver.Resolve(ctx, profileID)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound,
			"brand profile could not be resolved: "+profileID, err, "9a4f1c6e-2b85-4d30-8e71-c5d2a9f0b384")
	}
	return profile, nil
}

// GenerateContent bills and runs one content generation. An empty model id
// triggers auto selection before the credit wrapper sees the request.
func (h *GenerationHandler) GenerateContent(ctx context.Context, req *generation.ContentRequest, criteria generation.SelectionCriteria) *generation.Response[*generation.Post] {
	start := time.Now()
	if req.ModelID == "" {
		desc := h.generator.RecommendContentModel(ctx, h.seedPlatform(criteria, req.Platform))
		if desc == nil {
			return generation.Fail[*generation.Post](generation.NoSuitableModelID, generation.CodeNoSuitableModel,
				"no model satisfies the request", time.Since(start))
		}
		req.ModelID = desc.ID
	}
	resp := h.credits.GenerateContent(ctx, req)
	observe(h, resp.Metadata.ModelID, "content", resp, start)
	return resp
}

// GenerateDesign bills and runs one design generation.
func (h *GenerationHandler) GenerateDesign(ctx context.Context, req *generation.DesignRequest, criteria generation.SelectionCriteria) *generation.Response[*generation.DesignVariant] {
	start := time.Now()
	if req.ModelID == "" {
		desc := h.generator.RecommendDesignModel(ctx, h.seedPlatform(criteria, req.Platform))
		if desc == nil {
			return generation.Fail[*generation.DesignVariant](generation.NoSuitableModelID, generation.CodeNoSuitableModel,
				"no model satisfies the request", time.Since(start))
		}
		req.ModelID = desc.ID
	}
	resp := h.credits.GenerateDesign(ctx, req)
	observe(h, resp.Metadata.ModelID, "design", resp, start)
	return resp
}

// BatchGenerateContent bills a batch sequentially through the credit wrapper.
// Requests without a model id are auto-selected up front so the whole batch
// bills against concrete tariffs.
func (h *GenerationHandler) BatchGenerateContent(ctx context.Context, reqs []*generation.ContentRequest) []*generation.Response[*generation.Post] {
	for _, req := range reqs {
		if req != nil && req.ModelID == "" {
			if desc := h.generator.RecommendContentModel(ctx, h.seedPlatform(generation.SelectionCriteria{}, req.Platform)); desc != nil {
				req.ModelID = desc.ID
			}
		}
	}
	results := h.credits.BatchGenerateContent(ctx, reqs)
	for _, resp := range results {
		if resp != nil {
			h.observeOutcome(resp.Metadata.ModelID, "content", resp.Success, resp.Code)
		}
	}
	return results
}

// BatchGenerateDesign bills a design batch sequentially through the credit
// wrapper, with the same up-front auto selection as the content batch.
func (h *GenerationHandler) BatchGenerateDesign(ctx context.Context, reqs []*generation.DesignRequest) []*generation.Response[*generation.DesignVariant] {
	for _, req := range reqs {
		if req != nil && req.ModelID == "" {
			if desc := h.generator.RecommendDesignModel(ctx, h.seedPlatform(generation.SelectionCriteria{}, req.Platform)); desc != nil {
				req.ModelID = desc.ID
			}
		}
	}
	results := h.credits.BatchGenerateDesign(ctx, reqs)
	for _, resp := range results {
		if resp != nil {
			h.observeOutcome(resp.Metadata.ModelID, "design", resp.Success, resp.Code)
		}
	}
	return results
}

// OrchestrateContent runs the A/B production path. Billing is settled by the
// pipeline that owns the traffic split, not per request here.
func (h *GenerationHandler) OrchestrateContent(ctx context.Context, req *generation.ContentRequest, useOptimized *bool) *generation.Response[*generation.Post] {
	start := time.Now()
	resp := h.orchestrator.GenerateContent(ctx, req, orchestrator.Options{UseOptimized: useOptimized})
	if records := h.orchestrator.PerfRecords(); len(records) > 0 {
		last := records[len(records)-1]
		metrics.OrchestratorPathTotal.
			WithLabelValues(string(last.Version), strconv.FormatBool(last.FellBack)).
			Inc()
	}
	observe(h, resp.Metadata.ModelID, "content", resp, start)
	return resp
}

// PerfRecords exposes the orchestrator's rolling performance window.
func (h *GenerationHandler) PerfRecords() []orchestrator.PerfRecord {
	return h.orchestrator.PerfRecords()
}

func (h *GenerationHandler) seedPlatform(criteria generation.SelectionCriteria, platform generation.Platform) generation.SelectionCriteria {
	if criteria.Platform == "" {
		criteria.Platform = platform
	}
	return criteria
}

// observe records outcome, billing and latency metrics for one generation
// call. Free function because methods cannot take type parameters.
func observe[T any](h *GenerationHandler, modelID, kind string, resp *generation.Response[T], start time.Time) {
	h.observeOutcome(modelID, kind, resp.Success, resp.Code)
	if resp.Success && resp.CreditInfo != nil {
		deducted, _ := resp.CreditInfo.CreditsDeducted.Float64()
		metrics.CreditsDeductedTotal.WithLabelValues(modelID).Add(deducted)
	}
	metrics.GenerationDuration.WithLabelValues(modelID, kind).Observe(time.Since(start).Seconds())
}

func (h *GenerationHandler) observeOutcome(modelID, kind string, success bool, code generation.FailureCode) {
	outcome := "success"
	if !success {
		outcome = string(code)
	}
	metrics.GenerationsTotal.WithLabelValues(modelID, kind, outcome).Inc()
}
