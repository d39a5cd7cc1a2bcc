// Package testutil provides shared fixtures for handler tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewUpstream starts a fake platform API serving mux and tears it down
// with the test.
func NewUpstream(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// JSONHandler responds with a fixed JSON body.
func JSONHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
