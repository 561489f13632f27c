package model

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nevis-server/internal/interfaces/httpserver/handlers/modelhandler"
	"nevis-server/internal/interfaces/httpserver/requests/generationrequests"
	"nevis-server/internal/interfaces/httpserver/responses"
	"nevis-server/internal/utils/platformerrors"
)

type ModelRoute struct {
	modelHandler *modelhandler.ModelHandler
}

func NewModelRoute(modelHandler *modelhandler.ModelHandler) *ModelRoute {
	return &ModelRoute{modelHandler: modelHandler}
}

func (route *ModelRoute) RegisterRouter(router *gin.RouterGroup) {
	modelsRoute := router.Group("models")
	modelsRoute.GET("", route.GetModels)
	modelsRoute.GET("/available", route.GetAvailableModels)
	modelsRoute.GET("/health", route.GetHealth)
	modelsRoute.POST("/recommend", route.Recommend)
	modelsRoute.GET("/:model_id", route.GetModel)
	modelsRoute.PUT("/:model_id/config", route.SetOverride)
	modelsRoute.DELETE("/:model_id/config", route.ClearOverride)
}

// GetModels godoc
// @Summary List registered models
// @Description Returns every registered model descriptor in registration order.
// @Tags Model API
// @Produce json
// @Success 200 {object} map[string]interface{} "Model catalog"
// @Router /v1/models [get]
func (route *ModelRoute) GetModels(reqCtx *gin.Context) {
	models := route.modelHandler.ListModels(reqCtx.Request.Context())
	reqCtx.JSON(http.StatusOK, gin.H{"models": models, "count": len(models)})
}

// GetAvailableModels godoc
// @Summary List available models
// @Description Probes availability and returns only models whose provider chain responds.
// @Tags Model API
// @Produce json
// @Success 200 {object} map[string]interface{} "Available models"
// @Router /v1/models/available [get]
func (route *ModelRoute) GetAvailableModels(reqCtx *gin.Context) {
	models := route.modelHandler.ListAvailableModels(reqCtx.Request.Context())
	reqCtx.JSON(http.StatusOK, gin.H{"models": models, "count": len(models)})
}

// GetModel godoc
// @Summary Get one model descriptor
// @Tags Model API
// @Produce json
// @Param model_id path string true "Model id"
// @Success 200 {object} generation.Descriptor "Model descriptor"
// @Failure 404 {object} responses.ErrorResponse "Model not found"
// @Router /v1/models/{model_id} [get]
func (route *ModelRoute) GetModel(reqCtx *gin.Context) {
	modelID := strings.TrimSpace(reqCtx.Param("model_id"))
	desc, err := route.modelHandler.GetModel(reqCtx.Request.Context(), modelID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to retrieve model")
		return
	}
	reqCtx.JSON(http.StatusOK, desc)
}

// Recommend godoc
// @Summary Recommend a model for the given criteria
// @Description Runs the auto-selection scoring without generating anything.
// @Tags Model API
// @Accept json
// @Produce json
// @Param request body generationrequests.SelectionCriteria true "Selection criteria"
// @Param design query bool false "Recommend for design generation instead of content"
// @Success 200 {object} generation.Descriptor "Recommended model"
// @Failure 404 {object} responses.ErrorResponse "No model satisfies the criteria"
// @Router /v1/models/recommend [post]
func (route *ModelRoute) Recommend(reqCtx *gin.Context) {
	var criteria generationrequests.SelectionCriteria
	if err := reqCtx.ShouldBindJSON(&criteria); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "8f1b6d3a-4e72-4c95-a8b1-0d5c9e2f7a63")
		return
	}
	design := strings.EqualFold(reqCtx.Query("design"), "true")

	desc := route.modelHandler.Recommend(reqCtx.Request.Context(), criteria.ToDomain(), design)
	if desc == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "no model satisfies the criteria", "2a9c4e7b-6d18-4f53-9e0a-b7f2c5d8a314")
		return
	}
	reqCtx.JSON(http.StatusOK, desc)
}

// SetOverride godoc
// @Summary Apply a config override to a model
// @Description Validates the merged config and stores the override; the cached instance is evicted.
// @Tags Model API
// @Accept json
// @Produce json
// @Param model_id path string true "Model id"
// @Param request body generationrequests.ModelConfigOverride true "Config override"
// @Success 200 {object} map[string]string "Override applied"
// @Failure 400 {object} responses.ErrorResponse "Invalid override"
// @Router /v1/models/{model_id}/config [put]
func (route *ModelRoute) SetOverride(reqCtx *gin.Context) {
	modelID := strings.TrimSpace(reqCtx.Param("model_id"))

	var override generationrequests.ModelConfigOverride
	if err := reqCtx.ShouldBindJSON(&override); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, err.Error(), "c7e2a5f8-9b34-4d16-8c0e-5a1d3f6b9e72")
		return
	}

	if err := route.modelHandler.SetOverride(reqCtx.Request.Context(), modelID, override.ToDomain()); err != nil {
		responses.HandleError(reqCtx, err, "Failed to apply config override")
		return
	}
	reqCtx.JSON(http.StatusOK, gin.H{"status": "override applied", "model_id": modelID})
}

// ClearOverride godoc
// @Summary Remove a model's config override
// @Tags Model API
// @Produce json
// @Param model_id path string true "Model id"
// @Success 200 {object} map[string]string "Override cleared"
// @Failure 404 {object} responses.ErrorResponse "Model not found"
// @Router /v1/models/{model_id}/config [delete]
func (route *ModelRoute) ClearOverride(reqCtx *gin.Context) {
	modelID := strings.TrimSpace(reqCtx.Param("model_id"))
	if err := route.modelHandler.ClearOverride(reqCtx.Request.Context(), modelID); err != nil {
		responses.HandleError(reqCtx, err, "Failed to clear config override")
		return
	}
	reqCtx.JSON(http.StatusOK, gin.H{"status": "override cleared", "model_id": modelID})
}

// GetHealth godoc
// @Summary Probe cached model instances
// @Description Probes every cached instance; dead ones are evicted and reported as false.
// @Tags Model API
// @Produce json
// @Success 200 {object} map[string]interface{} "Per-model liveness"
// @Router /v1/models/health [get]
func (route *ModelRoute) GetHealth(reqCtx *gin.Context) {
	health := route.modelHandler.HealthCheck(reqCtx.Request.Context())
	reqCtx.JSON(http.StatusOK, gin.H{"models": health})
}
