package endpoints

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/territoryops/recon/pkg/server"
	"github.com/territoryops/recon/pkg/server/store"
)

// StatusResponse represents the response from the status page
type StatusResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Territory Reconciliation Status</title>
  </head>
  <body>
    <h1>Status</h1>
    <p class="status-text">{{if eq .Status "ok"}}The reconciliation service is running!{{else}}The reconciliation service cannot reach its database.{{end}}</p>
    <dl>
      <dt>Version</dt>
      <dd>{{.Version}}</dd>
      <dt>Database</dt>
      <dd>{{.Database}}</dd>
    </dl>
  </body>
</html>
`))

// RegisterStatusEndpoints registers the status page (no auth required)
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s.HealthStore)).Methods("GET")
}

func handleStatus(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("RECON_VERSION")
		if version == "" {
			version = "0.1.0"
		}

		response := StatusResponse{Status: "ok", Version: version, Database: "ok"}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := healthStore.CheckConnectivity(ctx); err != nil {
			response.Status = "error"
			response.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}

		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(response)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(code)
		_ = statusPage.Execute(w, response)
	}
}
