package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/territoryops/recon/pkg/logging"
)

func TestRequestLogger(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var entry *logrus.Entry
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry = logging.FromContext(r.Context())
	}))

	t.Run("generates a request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/clashes", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, entry.Data["request_id"])
		assert.Equal(t, "/clashes", entry.Data["path"])
		assert.Same(t, logger, entry.Logger)
	})

	t.Run("reuses the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/clashes/A1/resolve", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-42", entry.Data["request_id"])
		assert.Equal(t, "POST", entry.Data["method"])
	})
}
