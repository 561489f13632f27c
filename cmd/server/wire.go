//go:build wireinject

package main

import (
	"github.com/google/wire"

	"nevis-server/internal/domain"
	"nevis-server/internal/infrastructure"
	"nevis-server/internal/interfaces"
	"nevis-server/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
