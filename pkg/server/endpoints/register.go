package endpoints

import (
	"github.com/territoryops/recon/pkg/server"
	"github.com/territoryops/recon/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	srv.Router.Use(middleware.RequestLogger(srv.Logger))

	RegisterStatusEndpoints(srv)
	RegisterMetricsEndpoint(srv)
	RegisterBuildsEndpoints(srv)
	RegisterClashesEndpoints(srv)
}
