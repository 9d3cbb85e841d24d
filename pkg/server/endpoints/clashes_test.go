package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/report"
)

var testAuth = identity.New("revops-1", identity.RoleRevOps, "")

// withAuth stands in for the JWT middleware.
func withAuth(auth *identity.AuthContext) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth != nil {
				r = r.WithContext(identity.Set(r.Context(), auth))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newClashRouter(svc ClashService, auth *identity.AuthContext) *mux.Router {
	router := mux.NewRouter().UseEncodedPath()
	sub := router.PathPrefix("/clashes").Subrouter()
	sub.Use(withAuth(auth))
	registerClashRoutes(sub, svc, func() *config.ReconConfig {
		return &config.ReconConfig{ExportSheetName: "Review"}
	})
	return router
}

func sampleDetection() *clash.Detection {
	bob := "bob"
	x := clash.NewAssignmentView(
		model.Build{ID: "X", Name: "East", Region: "east"},
		model.Account{SFDCAccountID: "A1", AccountName: "Acme", IsParent: true, OwnerID: "alice", OwnerName: "alice", ARR: decimal.NewFromInt(250000)},
	)
	y := clash.NewAssignmentView(
		model.Build{ID: "Y", Name: "EMEA", Region: "emea"},
		model.Account{SFDCAccountID: "A1", AccountName: "Acme", IsParent: true, OwnerID: "alice", OwnerName: "alice", NewOwnerID: &bob, NewOwnerName: &bob, ARR: decimal.NewFromInt(250000)},
	)
	c, _ := clash.Classify("A1", []clash.AssignmentView{x, y})
	return &clash.Detection{
		Builds:  []model.Build{{ID: "X", Name: "East"}, {ID: "Y", Name: "EMEA"}},
		Clashes: []clash.Clash{c},
		Omitted: []clash.OmittedBuild{{BuildID: "Z", BuildName: "West", Reason: "timeout"}},
	}
}

func TestHandleDetectClashes(t *testing.T) {
	t.Run("returns clashes, omitted builds and a summary", func(t *testing.T) {
		svc := NewMockClashService()
		svc.On("Detect", mock.Anything, testAuth, []string{"X", "Y", "Z"}).Return(sampleDetection(), nil)

		req := httptest.NewRequest("GET", "/clashes?build_id=X,Y&build_id=Z", nil)
		w := httptest.NewRecorder()
		newClashRouter(svc, testAuth).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Clashes []struct {
				AccountID string   `json:"account_id"`
				Severity  string   `json:"severity"`
				Tags      []string `json:"tags"`
				Revenue   string   `json:"revenue"`
			} `json:"clashes"`
			Omitted []clash.OmittedBuild `json:"omitted"`
			Summary map[string]int       `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Clashes, 1)
		assert.Equal(t, "A1", body.Clashes[0].AccountID)
		assert.Equal(t, "high", body.Clashes[0].Severity)
		assert.Contains(t, body.Clashes[0].Tags, "cross_region")
		assert.Equal(t, "250000", body.Clashes[0].Revenue)
		require.Len(t, body.Omitted, 1)
		assert.Equal(t, "timeout", body.Omitted[0].Reason)
		assert.Equal(t, 1, body.Summary["high"])
		svc.AssertExpectations(t)
	})

	t.Run("requires an identity", func(t *testing.T) {
		svc := NewMockClashService()

		w := httptest.NewRecorder()
		newClashRouter(svc, nil).ServeHTTP(w, httptest.NewRequest("GET", "/clashes", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hides store errors", func(t *testing.T) {
		svc := NewMockClashService()
		svc.On("Detect", mock.Anything, testAuth, []string(nil)).Return(nil, errors.New("list builds: pq: password authentication failed"))

		w := httptest.NewRecorder()
		newClashRouter(svc, testAuth).ServeHTTP(w, httptest.NewRequest("GET", "/clashes", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	})
}

func TestHandleClashPairs(t *testing.T) {
	svc := NewMockClashService()
	svc.On("Detect", mock.Anything, testAuth, []string(nil)).Return(sampleDetection(), nil)

	w := httptest.NewRecorder()
	newClashRouter(svc, testAuth).ServeHTTP(w, httptest.NewRequest("GET", "/clashes/pairs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body PairsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Pairs, 1)
	assert.Equal(t, [2]string{"X", "Y"}, body.Pairs[0].BuildIDs)
	assert.Equal(t, [2]string{"East", "EMEA"}, body.Pairs[0].BuildNames)
	require.Len(t, body.Pairs[0].Clashes, 1)
	assert.Equal(t, "A1", body.Pairs[0].Clashes[0].AccountID)
	assert.Len(t, body.Omitted, 1)
}

func TestHandleExportClashes(t *testing.T) {
	svc := NewMockClashService()
	svc.On("Detect", mock.Anything, testAuth, []string{"X", "Y"}).Return(sampleDetection(), nil)

	w := httptest.NewRecorder()
	newClashRouter(svc, testAuth).ServeHTTP(w, httptest.NewRequest("GET", "/clashes/export?build_id=X,Y", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename=clashes-"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Review")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[1][0])
}

func TestHandleResolveClash(t *testing.T) {
	resolution := &model.Resolution{
		ID:             "res-1",
		SFDCAccountID:  "A1",
		BuildIDs:       []string{"X", "Y"},
		WinningBuildID: "Y",
		OwnerID:        "bob",
		Rationale:      "EMEA",
		ResolvedBy:     "revops-1",
		ResolvedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	request := clash.ResolveRequest{TargetBuildID: "Y", Rationale: "EMEA"}

	t.Run("creates a resolution", func(t *testing.T) {
		svc := NewMockClashService()
		svc.On("Resolve", mock.Anything, testAuth, "A1", request).Return(resolution, nil)

		req := httptest.NewRequest("POST", "/clashes/A1/resolve", strings.NewReader(`{"target_build_id":"Y","rationale":"EMEA"}`))
		w := httptest.NewRecorder()
		newClashRouter(svc, testAuth).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var body model.Resolution
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "res-1", body.ID)
		assert.Equal(t, "bob", body.OwnerID)
		svc.AssertExpectations(t)
	})

	t.Run("unescapes the account id", func(t *testing.T) {
		svc := NewMockClashService()
		svc.On("Resolve", mock.Anything, testAuth, "001/ACME", request).Return(resolution, nil)

		req := httptest.NewRequest("POST", "/clashes/001%2FACME/resolve", strings.NewReader(`{"target_build_id":"Y","rationale":"EMEA"}`))
		w := httptest.NewRecorder()
		newClashRouter(svc, testAuth).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		svc := NewMockClashService()

		req := httptest.NewRequest("POST", "/clashes/A1/resolve", strings.NewReader(`{"target_build_id":`))
		w := httptest.NewRecorder()
		newClashRouter(svc, testAuth).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"missing rationale", clash.ErrRationaleRequired, http.StatusUnprocessableEntity, `{"error":"rationale is required"}`},
		{"target not in clash", clash.ErrTargetNotInClash, http.StatusUnprocessableEntity, `{"error":"target build is not a member of the clash"}`},
		{"target without owner", clash.ErrTargetNoOwner, http.StatusUnprocessableEntity, `{"error":"target build has no effective owner"}`},
		{"no clash", clash.ErrClashNotFound, http.StatusNotFound, `{"error":"clash not found"}`},
		{"concurrent resolution", clash.ErrResolutionInProgress, http.StatusConflict, `{"error":"resolution already in progress"}`},
		{
			"write failure",
			&clash.ResolutionError{AccountID: "A1", FailedBuilds: []string{"X"}, Err: errors.New("deadlock detected")},
			http.StatusInternalServerError,
			`{"error":"resolution failed"}`,
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewMockClashService()
			svc.On("Resolve", mock.Anything, testAuth, "A1", request).Return(nil, tc.err)

			req := httptest.NewRequest("POST", "/clashes/A1/resolve", strings.NewReader(`{"target_build_id":"Y","rationale":"EMEA"}`))
			w := httptest.NewRecorder()
			newClashRouter(svc, testAuth).ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestHandleListResolutions(t *testing.T) {
	svc := NewMockClashService()
	svc.On("History", mock.Anything, testAuth, "A1").Return([]model.Resolution{{ID: "res-2"}, {ID: "res-1"}}, nil)

	w := httptest.NewRecorder()
	newClashRouter(svc, testAuth).ServeHTTP(w, httptest.NewRequest("GET", "/clashes/A1/resolutions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body []model.Resolution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "res-2", body[0].ID)
	svc.AssertExpectations(t)
}

func TestAccountIDDecodedOnce(t *testing.T) {
	svc := NewMockClashService()
	svc.On("History", mock.Anything, testAuth, "%41").Return([]model.Resolution{}, nil)

	w := httptest.NewRecorder()
	newClashRouter(svc, testAuth).ServeHTTP(w, httptest.NewRequest("GET", "/clashes/%2541/resolutions", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestBuildIDsParam(t *testing.T) {
	req := httptest.NewRequest("GET", "/clashes?build_id=X,%20Y,&build_id=Z", nil)
	assert.Equal(t, []string{"X", "Y", "Z"}, buildIDsParam(req))
	assert.Nil(t, buildIDsParam(httptest.NewRequest("GET", "/clashes", nil)))
}
