package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForServer(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var out bytes.Buffer
	require.NoError(t, waitForServer(&out, ts.URL+"/", 5, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, out.String(), "..")
	assert.Contains(t, out.String(), "recon is ready!")
}

func TestWaitForServerGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := waitForServer(&bytes.Buffer{}, ts.URL+"/", 2, time.Millisecond)
	assert.EqualError(t, err, "recon is not ready after 2 attempts")
}
