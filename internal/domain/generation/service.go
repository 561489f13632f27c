package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nevis-server/internal/utils/platformerrors"
)

const maxConcurrentBatch = 4

// Service is the generation front door. Every call returns an envelope, never
// an error: validation problems, missing models, provider outages and panics
// all arrive as Success=false with a failure code, so callers handle exactly
// one shape.
type Service struct {
	registry *Registry
	factory  *Factory
	log      zerolog.Logger
}

func NewService(registry *Registry, factory *Factory, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		factory:  factory,
		log:      log.With().Str("component", "generation_service").Logger(),
	}
}

// GenerateContent runs the full content pipeline against the model named in
// the request.
func (s *Service) GenerateContent(ctx context.Context, req *ContentRequest) (resp *Response[*Post]) {
	start := time.Now()
	modelID := ""
	if req != nil {
		modelID = req.ModelID
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("model_id", modelID).Interface("panic", r).Msg("content generation panicked")
			resp = Fail[*Post](modelID, CodeGenerationError, fmt.Sprintf("internal error: %v", r), time.Since(start))
		}
	}()

	if req == nil {
		return Fail[*Post](modelID, CodeInvalidRequest, "request is required", time.Since(start))
	}
	if err := req.Validate(); err != nil {
		return Fail[*Post](modelID, CodeInvalidRequest, err.Error(), time.Since(start))
	}

	impl, failCode, failMsg := s.resolve(ctx, req.ModelID)
	if impl == nil {
		return Fail[*Post](modelID, failCode, failMsg, time.Since(start))
	}

	content, ok := impl.(ContentCapable)
	if !ok || !impl.Descriptor().Capabilities.ContentGeneration {
		return Fail[*Post](modelID, CodeRequestRejected, "model "+modelID+" does not generate content", time.Since(start))
	}

	if err := content.ValidateContent(req); err != nil {
		return Fail[*Post](modelID, CodeRequestRejected, err.Error(), time.Since(start))
	}

	result, err := content.GenerateContent(ctx, req)
	if err != nil {
		s.log.Error().Str("model_id", modelID).Err(err).Msg("content generation failed")
		return Fail[*Post](modelID, CodeGenerationError, err.Error(), time.Since(start))
	}
	return result
}

// GenerateDesign runs the full design pipeline against the model named in the
// request.
func (s *Service) GenerateDesign(ctx context.Context, req *DesignRequest) (resp *Response[*DesignVariant]) {
	start := time.Now()
	modelID := ""
	if req != nil {
		modelID = req.ModelID
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("model_id", modelID).Interface("panic", r).Msg("design generation panicked")
			resp = Fail[*DesignVariant](modelID, CodeGenerationError, fmt.Sprintf("internal error: %v", r), time.Since(start))
		}
	}()

	if req == nil {
		return Fail[*DesignVariant](modelID, CodeInvalidRequest, "request is required", time.Since(start))
	}
	if err := req.Validate(); err != nil {
		return Fail[*DesignVariant](modelID, CodeInvalidRequest, err.Error(), time.Since(start))
	}

	impl, failCode, failMsg := s.resolve(ctx, req.ModelID)
	if impl == nil {
		return Fail[*DesignVariant](modelID, failCode, failMsg, time.Since(start))
	}

	design, ok := impl.(DesignCapable)
	if !ok || !impl.Descriptor().Capabilities.DesignGeneration {
		return Fail[*DesignVariant](modelID, CodeRequestRejected, "model "+modelID+" does not generate designs", time.Since(start))
	}

	if err := design.ValidateDesign(req); err != nil {
		return Fail[*DesignVariant](modelID, CodeRequestRejected, err.Error(), time.Since(start))
	}

	result, err := design.GenerateDesign(ctx, req)
	if err != nil {
		s.log.Error().Str("model_id", modelID).Err(err).Msg("design generation failed")
		return Fail[*DesignVariant](modelID, CodeGenerationError, err.Error(), time.Since(start))
	}
	return result
}

// resolve turns a model id into a live instance, mapping factory errors into
// the envelope failure taxonomy.
func (s *Service) resolve(ctx context.Context, modelID string) (Implementation, FailureCode, string) {
	impl, err := s.factory.Create(ctx, modelID)
	if err == nil {
		return impl, "", ""
	}
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, CodeModelNotFound, "model not found: " + modelID
	}
	return nil, CodeModelUnavailable, "model unavailable: " + modelID
}

// GenerateContentAuto selects the best content model for the request and
// generates with it. Selection constraints are derived from the request
// itself; explicit criteria fields the caller sets are preserved.
func (s *Service) GenerateContentAuto(ctx context.Context, req *ContentRequest, criteria SelectionCriteria) *Response[*Post] {
	start := time.Now()
	if req == nil {
		return Fail[*Post]("", CodeInvalidRequest, "request is required", time.Since(start))
	}

	criteria = seedCriteria(criteria, CapabilityContentGeneration, req.Platform, req.ArtifactIDs)
	best := s.registry.SelectBest(ctx, criteria)
	if best == nil {
		return Fail[*Post](NoSuitableModelID, CodeNoSuitableModel, "no model satisfies the request", time.Since(start))
	}

	picked := *req
	picked.ModelID = best.Descriptor().ID
	return s.GenerateContent(ctx, &picked)
}

// GenerateDesignAuto selects the best design model for the request and
// generates with it.
func (s *Service) GenerateDesignAuto(ctx context.Context, req *DesignRequest, criteria SelectionCriteria) *Response[*DesignVariant] {
	start := time.Now()
	if req == nil {
		return Fail[*DesignVariant]("", CodeInvalidRequest, "request is required", time.Since(start))
	}

	criteria = seedCriteria(criteria, CapabilityDesignGeneration, req.Platform, req.ArtifactIDs)
	best := s.registry.SelectBest(ctx, criteria)
	if best == nil {
		return Fail[*DesignVariant](NoSuitableModelID, CodeNoSuitableModel, "no model satisfies the request", time.Since(start))
	}

	picked := *req
	picked.ModelID = best.Descriptor().ID
	return s.GenerateDesign(ctx, &picked)
}

// seedCriteria folds the request's implicit constraints into the caller's
// criteria: the generation kind, the target platform, and artifact support
// when the request carries artifacts.
func seedCriteria(criteria SelectionCriteria, kind CapabilityFlag, platform Platform, artifactIDs []string) SelectionCriteria {
	required := append([]CapabilityFlag(nil), criteria.RequiredCapabilities...)
	if !containsFlag(required, kind) {
		required = append(required, kind)
	}
	if len(artifactIDs) > 0 && !containsFlag(required, CapabilityArtifactSupport) {
		required = append(required, CapabilityArtifactSupport)
	}
	criteria.RequiredCapabilities = required
	if criteria.Platform == "" {
		criteria.Platform = platform
	}
	return criteria
}

func containsFlag(flags []CapabilityFlag, flag CapabilityFlag) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// BatchGenerateContent runs every request concurrently and returns results in
// request order. Each slot is fully isolated: one request's failure never
// affects its neighbors.
func (s *Service) BatchGenerateContent(ctx context.Context, reqs []*ContentRequest) []*Response[*Post] {
	results := make([]*Response[*Post], len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentBatch)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			results[i] = s.GenerateContent(egCtx, req)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// BatchGenerateDesign runs every design request concurrently, results in
// request order.
func (s *Service) BatchGenerateDesign(ctx context.Context, reqs []*DesignRequest) []*Response[*DesignVariant] {
	results := make([]*Response[*DesignVariant], len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentBatch)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			results[i] = s.GenerateDesign(egCtx, req)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// RecommendContentModel returns the descriptor of the model auto selection
// would pick for content generation, or nil when nothing qualifies.
func (s *Service) RecommendContentModel(ctx context.Context, criteria SelectionCriteria) *Descriptor {
	criteria = seedCriteria(criteria, CapabilityContentGeneration, criteria.Platform, nil)
	best := s.registry.SelectBest(ctx, criteria)
	if best == nil {
		return nil
	}
	return best.Descriptor()
}

// RecommendDesignModel returns the descriptor of the model auto selection
// would pick for design generation, or nil when nothing qualifies.
func (s *Service) RecommendDesignModel(ctx context.Context, criteria SelectionCriteria) *Descriptor {
	criteria = seedCriteria(criteria, CapabilityDesignGeneration, criteria.Platform, nil)
	best := s.registry.SelectBest(ctx, criteria)
	if best == nil {
		return nil
	}
	return best.Descriptor()
}
