package generate

import (
	"strings"

	"github.com/gin-gonic/gin"

	"nevis-server/internal/domain/generation"
	"nevis-server/internal/interfaces/httpserver/handlers/generationhandler"
	"nevis-server/internal/interfaces/httpserver/requests/generationrequests"
	"nevis-server/internal/interfaces/httpserver/responses"
	"nevis-server/internal/utils/platformerrors"
)

const userIDHeader = "X-User-ID"

type GenerateRoute struct {
	generationHandler *generationhandler.GenerationHandler
}

func NewGenerateRoute(generationHandler *generationhandler.GenerationHandler) *GenerateRoute {
	return &GenerateRoute{generationHandler: generationHandler}
}

func (route *GenerateRoute) RegisterRouter(router *gin.RouterGroup) {
	generateRoute := router.Group("generate")
	generateRoute.POST("/content", route.GenerateContent)
	generateRoute.POST("/design", route.GenerateDesign)
	generateRoute.POST("/batch", route.BatchGenerateContent)
	generateRoute.POST("/batch/design", route.BatchGenerateDesign)
	generateRoute.POST("/orchestrated", route.OrchestrateContent)
	generateRoute.GET("/perf", route.GetPerfRecords)
}

// GenerateContent godoc
// @Summary Generate a social media post
// @Description Runs a billed content generation. An empty model_id triggers auto selection.
// @Tags Generation API
// @Accept json
// @Produce json
// @Param request body generationrequests.ContentGenerationRequest true "Content generation request"
// @Success 200 {object} generation.Response[generation.Post] "Generated post"
// @Failure 402 {object} generation.Response[generation.Post] "Insufficient credits"
// @Router /v1/generate/content [post]
func (route *GenerateRoute) GenerateContent(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req generationrequests.ContentGenerationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "d4f8a2c6-9b13-4e57-8a0d-2c7e5f1b9d38")
		return
	}

	profile, err := route.generationHandler.ResolveProfile(ctx, req.Profile, req.ProfileID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to resolve brand profile")
		return
	}

	domainReq := req.ToDomain()
	domainReq.Profile = profile
	domainReq.UserID = resolveUserID(reqCtx, req.UserID)

	resp := route.generationHandler.GenerateContent(ctx, domainReq, req.Criteria.ToDomain())
	responses.WriteEnvelope(reqCtx, resp)
}

// GenerateDesign godoc
// @Summary Generate a design variant
// @Description Runs a billed design generation. An empty model_id triggers auto selection.
// @Tags Generation API
// @Accept json
// @Produce json
// @Param request body generationrequests.DesignGenerationRequest true "Design generation request"
// @Success 200 {object} generation.Response[generation.DesignVariant] "Generated design"
// @Router /v1/generate/design [post]
func (route *GenerateRoute) GenerateDesign(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req generationrequests.DesignGenerationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "a1c5e9b3-7d28-4f64-9c1a-5e8b2d6f0a47")
		return
	}

	profile, err := route.generationHandler.ResolveProfile(ctx, req.Profile, req.ProfileID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to resolve brand profile")
		return
	}

	domainReq := req.ToDomain()
	domainReq.Profile = profile
	domainReq.UserID = resolveUserID(reqCtx, req.UserID)

	resp := route.generationHandler.GenerateDesign(ctx, domainReq, req.Criteria.ToDomain())
	responses.WriteEnvelope(reqCtx, resp)
}

// BatchGenerateContent godoc
// @Summary Generate a batch of social media posts
// @Description Bills each request sequentially; the batch halts on the first insufficient-credits failure.
// @Tags Generation API
// @Accept json
// @Produce json
// @Param request body generationrequests.BatchContentRequest true "Batch of content generation requests"
// @Success 200 {object} map[string]interface{} "Per-slot result envelopes in request order"
// @Router /v1/generate/batch [post]
func (route *GenerateRoute) BatchGenerateContent(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req generationrequests.BatchContentRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "6b2d8f4a-1e95-4c37-b0a6-9d3c7e5f2b18")
		return
	}

	domainReqs := make([]*generation.ContentRequest, 0, len(req.Requests))
	for i := range req.Requests {
		item := &req.Requests[i]
		profile, err := route.generationHandler.ResolveProfile(ctx, item.Profile, item.ProfileID)
		if err != nil {
			responses.HandleError(reqCtx, err, "Failed to resolve brand profile")
			return
		}
		domainReq := item.ToDomain()
		domainReq.Profile = profile
		domainReq.UserID = resolveUserID(reqCtx, item.UserID)
		domainReqs = append(domainReqs, domainReq)
	}

	results := route.generationHandler.BatchGenerateContent(ctx, domainReqs)
	responses.WriteBatch(reqCtx, results)
}

// BatchGenerateDesign godoc
// @Summary Generate a batch of design variants
// @Description Bills each design sequentially; the batch halts on the first insufficient-credits failure.
// @Tags Generation API
// @Accept json
// @Produce json
// @Param request body generationrequests.BatchDesignRequest true "Batch of design generation requests"
// @Success 200 {object} map[string]interface{} "Per-slot result envelopes in request order"
// @Router /v1/generate/batch/design [post]
func (route *GenerateRoute) BatchGenerateDesign(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req generationrequests.BatchDesignRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "f5a9c1e7-3d62-4b08-9e4f-7a2c8d0b5e36")
		return
	}

	domainReqs := make([]*generation.DesignRequest, 0, len(req.Requests))
	for i := range req.Requests {
		item := &req.Requests[i]
		profile, err := route.generationHandler.ResolveProfile(ctx, item.Profile, item.ProfileID)
		if err != nil {
			responses.HandleError(reqCtx, err, "Failed to resolve brand profile")
			return
		}
		domainReq := item.ToDomain()
		domainReq.Profile = profile
		domainReq.UserID = resolveUserID(reqCtx, item.UserID)
		domainReqs = append(domainReqs, domainReq)
	}

	results := route.generationHandler.BatchGenerateDesign(ctx, domainReqs)
	responses.WriteBatch(reqCtx, results)
}

// OrchestrateContent godoc
// @Summary Generate content through the A/B production path
// @Description Splits traffic between the stable and optimized paths; optimized failures fall back to stable once.
// @Tags Generation API
// @Accept json
// @Produce json
// @Param request body generationrequests.OrchestratedContentRequest true "Orchestrated content request"
// @Success 200 {object} generation.Response[generation.Post] "Generated post tagged with the serving version"
// @Router /v1/generate/orchestrated [post]
func (route *GenerateRoute) OrchestrateContent(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req generationrequests.OrchestratedContentRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "0e7a3c9d-5b41-4f86-a2d0-8c6e1b4f7a29")
		return
	}

	profile, err := route.generationHandler.ResolveProfile(ctx, req.Profile, req.ProfileID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to resolve brand profile")
		return
	}

	domainReq := req.ToDomain()
	domainReq.Profile = profile
	domainReq.UserID = resolveUserID(reqCtx, req.UserID)

	resp := route.generationHandler.OrchestrateContent(ctx, domainReq, req.UseOptimized)
	responses.WriteEnvelope(reqCtx, resp)
}

// GetPerfRecords godoc
// @Summary Orchestrator performance window
// @Description Returns the rolling window of A/B path performance records.
// @Tags Generation API
// @Produce json
// @Success 200 {object} map[string]interface{} "Performance records"
// @Router /v1/generate/perf [get]
func (route *GenerateRoute) GetPerfRecords(reqCtx *gin.Context) {
	records := route.generationHandler.PerfRecords()
	reqCtx.JSON(200, gin.H{"records": records, "count": len(records)})
}

func resolveUserID(reqCtx *gin.Context, bodyUserID string) string {
	if id := strings.TrimSpace(bodyUserID); id != "" {
		return id
	}
	return strings.TrimSpace(reqCtx.GetHeader(userIDHeader))
}
