package endpoints

import (
	"github.com/territoryops/recon/pkg/metrics"
	"github.com/territoryops/recon/pkg/server"
)

// RegisterMetricsEndpoint exposes Prometheus metrics (no auth required)
func RegisterMetricsEndpoint(s *server.Server) {
	s.Router.Handle("/metrics", metrics.Handler()).Methods("GET")
}
