package routes

import (
	"github.com/google/wire"

	"nevis-server/internal/interfaces/httpserver/handlers/credithandler"
	"nevis-server/internal/interfaces/httpserver/handlers/generationhandler"
	"nevis-server/internal/interfaces/httpserver/handlers/modelhandler"
	v1 "nevis-server/internal/interfaces/httpserver/routes/v1"
	"nevis-server/internal/interfaces/httpserver/routes/v1/credit"
	"nevis-server/internal/interfaces/httpserver/routes/v1/generate"
	"nevis-server/internal/interfaces/httpserver/routes/v1/model"
)

var RouteProvider = wire.NewSet(
	// Handlers
	generationhandler.NewGenerationHandler,
	modelhandler.NewModelHandler,
	credithandler.NewCreditHandler,

	// Routes
	v1.NewV1Route,
	generate.NewGenerateRoute,
	model.NewModelRoute,
	credit.NewCreditRoute,
)
