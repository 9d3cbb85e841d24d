package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/logging"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithClashError maps clash errors onto HTTP statuses. Write
// failures are reported as a generic "resolution failed".
func respondWithClashError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case clash.IsPrecondition(err):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, clash.ErrClashNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, clash.ErrResolutionInProgress):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, clash.ErrNoIdentity):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, clash.ErrResolutionFailed):
		logging.LogError(logging.FromContext(r.Context()), "endpoints", "resolve", logrus.Fields{"path": r.URL.Path}, err)
		respondWithError(w, http.StatusInternalServerError, clash.ErrResolutionFailed.Error())
	default:
		logging.LogError(logging.FromContext(r.Context()), "endpoints", r.Method+" "+r.URL.Path, nil, err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

// authFromRequest returns the caller placed in the context by the JWT
// middleware.
func authFromRequest(w http.ResponseWriter, r *http.Request) (*identity.AuthContext, bool) {
	auth, ok := identity.Get(r.Context())
	if !ok || auth == nil {
		respondWithError(w, http.StatusUnauthorized, "Unable to determine identity")
		return nil, false
	}
	return auth, true
}

// buildIDsParam reads repeated or comma separated build_id parameters.
func buildIDsParam(r *http.Request) []string {
	var ids []string
	for _, value := range r.URL.Query()["build_id"] {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
