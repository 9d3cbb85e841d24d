package endpoints

import (
	"net/http"

	"github.com/territoryops/recon/pkg/server"
)

// RegisterBuildsEndpoints registers GET /builds
func RegisterBuildsEndpoints(s *server.Server) {
	buildsRouter := s.Router.PathPrefix("/builds").Subrouter()
	buildsRouter.Use(s.JWTMiddleware.Middleware)

	buildsRouter.HandleFunc("", handleListBuilds(s.Clashes)).Methods("GET")
}

func handleListBuilds(clashes ClashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		builds, err := clashes.Builds(r.Context(), auth)
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, builds)
	}
}
