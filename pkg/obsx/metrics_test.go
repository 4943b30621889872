package obsx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := obsx.Instrument(mux)

	for _, p := range []string{"/v1/things/a", "/v1/things/b", "/nope"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	rec := httptest.NewRecorder()
	obsx.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `http_requests_total{method="GET",route="GET /v1/things/{id}",status="202"} 2`)
	require.Contains(t, text, `route="unmatched",status="404"`)
	require.False(t, strings.Contains(text, "/v1/things/a"))
}

func TestAuthCounters(t *testing.T) {
	before := testutil.ToFloat64(obsx.RateLimitBans.WithLabelValues("metrics_test"))
	obsx.RateLimitBans.WithLabelValues("metrics_test").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(obsx.RateLimitBans.WithLabelValues("metrics_test")))
}

func TestRecoverMiddleware(t *testing.T) {
	h := obsx.RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "server_error")
}
