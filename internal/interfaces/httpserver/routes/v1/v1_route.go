package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nevis-server/internal/config"
	"nevis-server/internal/interfaces/httpserver/routes/v1/credit"
	"nevis-server/internal/interfaces/httpserver/routes/v1/generate"
	"nevis-server/internal/interfaces/httpserver/routes/v1/model"
)

type V1Route struct {
	generate *generate.GenerateRoute
	model    *model.ModelRoute
	credit   *credit.CreditRoute
}

func NewV1Route(
	generate *generate.GenerateRoute,
	model *model.ModelRoute,
	credit *credit.CreditRoute,
) *V1Route {
	return &V1Route{
		generate,
		model,
		credit,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.generate.RegisterRouter(v1Router)
	v1Route.model.RegisterRouter(v1Router)
	v1Route.credit.RegisterRouter(v1Router)
}

// GetVersion godoc
// @Summary Get API build version
// @Description Returns the current build version of the API server.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Version information"
// @Router /v1/version [get]
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": config.Version})
}

// GetHealthz godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API server. Used by orchestrators and monitoring systems.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Health status OK"
// @Router /v1/healthz [get]
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz godoc
// @Summary Readiness check endpoint
// @Description Returns the readiness status of the API server.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Readiness status ready"
// @Router /v1/readyz [get]
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
