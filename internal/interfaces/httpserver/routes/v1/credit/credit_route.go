package credit

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nevis-server/internal/domain/credit"
	"nevis-server/internal/interfaces/httpserver/handlers/credithandler"
	"nevis-server/internal/interfaces/httpserver/responses"
	"nevis-server/internal/utils/platformerrors"
)

type CreditRoute struct {
	creditHandler *credithandler.CreditHandler
}

func NewCreditRoute(creditHandler *credithandler.CreditHandler) *CreditRoute {
	return &CreditRoute{creditHandler: creditHandler}
}

func (route *CreditRoute) RegisterRouter(router *gin.RouterGroup) {
	creditsRoute := router.Group("credits")
	creditsRoute.GET("/:user_id/balance", route.GetBalance)
	creditsRoute.GET("/:user_id/affordability", route.GetAffordability)
	creditsRoute.GET("/:user_id/quota", route.GetQuota)
}

// GetBalance godoc
// @Summary Get a user's credit balance
// @Tags Credit API
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} map[string]interface{} "Current balance"
// @Router /v1/credits/{user_id}/balance [get]
func (route *CreditRoute) GetBalance(reqCtx *gin.Context) {
	userID := strings.TrimSpace(reqCtx.Param("user_id"))
	balance, err := route.creditHandler.GetBalance(reqCtx.Request.Context(), userID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to read balance")
		return
	}
	reqCtx.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

// GetAffordability godoc
// @Summary Check whether a user can afford a model
// @Description Pure read; no credits are touched. Safe for UI previews.
// @Tags Credit API
// @Produce json
// @Param user_id path string true "User id"
// @Param model_id query string true "Model id"
// @Param kind query string false "Tariff to quote: content or design. Derived from the model's capabilities when omitted."
// @Success 200 {object} credit.Affordability "Affordability"
// @Failure 400 {object} responses.ErrorResponse "Unknown model"
// @Router /v1/credits/{user_id}/affordability [get]
func (route *CreditRoute) GetAffordability(reqCtx *gin.Context) {
	userID := strings.TrimSpace(reqCtx.Param("user_id"))
	modelID := strings.TrimSpace(reqCtx.Query("model_id"))
	if modelID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "model_id query parameter is required", "7d3f9a1c-5e86-4b24-a0c7-2f8b6d4e1a95")
		return
	}

	var kind credit.GenerationKind
	switch strings.ToLower(strings.TrimSpace(reqCtx.Query("kind"))) {
	case "":
	case string(credit.KindContent):
		kind = credit.KindContent
	case string(credit.KindDesign):
		kind = credit.KindDesign
	default:
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "kind must be content or design", "2b8e6d0a-4f17-4c93-a5e8-0d9c3b7f1e46")
		return
	}

	affordability, err := route.creditHandler.CanAfford(reqCtx.Request.Context(), userID, modelID, kind)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to check affordability")
		return
	}
	reqCtx.JSON(http.StatusOK, affordability)
}

// GetQuota godoc
// @Summary Get a user's monthly generation quota status
// @Tags Credit API
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} credit.QuotaStatus "Quota status"
// @Router /v1/credits/{user_id}/quota [get]
func (route *CreditRoute) GetQuota(reqCtx *gin.Context) {
	userID := strings.TrimSpace(reqCtx.Param("user_id"))
	quota, err := route.creditHandler.CheckQuota(reqCtx.Request.Context(), userID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to read quota")
		return
	}
	reqCtx.JSON(http.StatusOK, quota)
}
