package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/report"
	"github.com/territoryops/recon/pkg/server"
)

// ClashService is the part of clash.Service used by the endpoints.
type ClashService interface {
	Builds(ctx context.Context, auth *identity.AuthContext) ([]model.Build, error)
	Detect(ctx context.Context, auth *identity.AuthContext, buildIDs []string) (*clash.Detection, error)
	Resolve(ctx context.Context, auth *identity.AuthContext, accountID string, req clash.ResolveRequest) (*model.Resolution, error)
	History(ctx context.Context, auth *identity.AuthContext, accountID string) ([]model.Resolution, error)
}

// DetectResponse is the body of GET /clashes
type DetectResponse struct {
	*clash.Detection
	Summary map[string]int `json:"summary"`
}

// PairsResponse is the body of GET /clashes/pairs
type PairsResponse struct {
	Pairs   []clash.PairGroup    `json:"pairs"`
	Omitted []clash.OmittedBuild `json:"omitted"`
}

// RegisterClashesEndpoints registers detection and resolution endpoints
func RegisterClashesEndpoints(s *server.Server) {
	clashesRouter := s.Router.PathPrefix("/clashes").Subrouter()
	clashesRouter.Use(s.JWTMiddleware.Middleware)

	registerClashRoutes(clashesRouter, s.Clashes, s.Config)
}

func registerClashRoutes(router *mux.Router, clashes ClashService, cfg func() *config.ReconConfig) {
	// GET /clashes?build_id=... - Run a detection pass
	router.HandleFunc("", handleDetectClashes(clashes)).Methods("GET")

	// GET /clashes/pairs?build_id=... - Clashes grouped by build pair
	router.HandleFunc("/pairs", handleClashPairs(clashes)).Methods("GET")

	// GET /clashes/export?build_id=... - Spreadsheet report
	router.HandleFunc("/export", handleExportClashes(clashes, cfg)).Methods("GET")

	// POST /clashes/{account_id}/resolve - Resolve one clash
	router.HandleFunc("/{account_id}/resolve", handleResolveClash(clashes)).Methods("POST")

	// GET /clashes/{account_id}/resolutions - Resolution history
	router.HandleFunc("/{account_id}/resolutions", handleListResolutions(clashes)).Methods("GET")
}

func handleDetectClashes(clashes ClashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		detection, err := clashes.Detect(r.Context(), auth, buildIDsParam(r))
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, DetectResponse{
			Detection: detection,
			Summary:   detection.CountBySeverity(),
		})
	}
}

func handleClashPairs(clashes ClashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		detection, err := clashes.Detect(r.Context(), auth, buildIDsParam(r))
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, PairsResponse{
			Pairs:   clash.GroupByBuildPair(detection.Clashes),
			Omitted: detection.Omitted,
		})
	}
}

func handleExportClashes(clashes ClashService, cfg func() *config.ReconConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		detection, err := clashes.Detect(r.Context(), auth, buildIDsParam(r))
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", report.ContentType)
		w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename(time.Now()))
		if err := report.Write(w, detection, report.Options{SheetName: cfg().ExportSheetName}); err != nil {
			respondWithClashError(w, r, err)
		}
	}
}

func handleResolveClash(clashes ClashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		accountID, err := url.PathUnescape(mux.Vars(r)["account_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid account id")
			return
		}

		var req clash.ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resolution, err := clashes.Resolve(r.Context(), auth, accountID, req)
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, resolution)
	}
}

func handleListResolutions(clashes ClashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authFromRequest(w, r)
		if !ok {
			return
		}

		accountID, err := url.PathUnescape(mux.Vars(r)["account_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid account id")
			return
		}

		resolutions, err := clashes.History(r.Context(), auth, accountID)
		if err != nil {
			respondWithClashError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, resolutions)
	}
}
