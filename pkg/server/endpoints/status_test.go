package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleStatus(t *testing.T) {
	t.Run("returns HTML status page", func(t *testing.T) {
		health := NewMockHealthStore()
		health.On("CheckConnectivity", mock.Anything).Return(nil)
		handler := handleStatus(health)

		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "The reconciliation service is running!")
	})

	t.Run("returns JSON when Accept header is application/json", func(t *testing.T) {
		health := NewMockHealthStore()
		health.On("CheckConnectivity", mock.Anything).Return(nil)
		handler := handleStatus(health)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

		var body StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Database)
		assert.NotEmpty(t, body.Version)
	})

	t.Run("reports an unreachable database", func(t *testing.T) {
		health := NewMockHealthStore()
		health.On("CheckConnectivity", mock.Anything).Return(errors.New("dial tcp: connection refused"))
		handler := handleStatus(health)

		req := httptest.NewRequest("GET", "/?format=json", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, "unreachable", body.Database)
		health.AssertExpectations(t)
	})
}
