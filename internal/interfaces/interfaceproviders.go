package interfaces

import (
	"github.com/google/wire"

	"nevis-server/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
)
