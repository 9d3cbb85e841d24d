// Package server provides the HTTP server for the reconciliation API.
//
// It uses gorilla/mux for routing, gorilla/handlers for access logging and
// a bearer-token middleware that places the caller's AuthContext in the
// request context.
//
// # Server Setup
//
//	srv := server.NewServer(config.Get, clashes, healthStore, resolutions, logger, "0.0.0.0", "80")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - / - Status and database connectivity
//   - /builds - Builds visible to the caller
//   - /clashes - Clash detection, build-pair grouping and xlsx export
//   - /clashes/{account_id}/resolve - Resolution of one clash
//   - /clashes/{account_id}/resolutions - Resolution history
//   - /metrics - Prometheus metrics
package server
