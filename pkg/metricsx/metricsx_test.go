package metricsx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/":                          "/",
		"/health":                    "/health",
		"/health/":                   "/health",
		"/api/accounts/login/":       "/api/accounts/login/",
		"/api/accounts/login":        "other",
		"/swagger/index.html":        "/swagger/",
		"/wp-admin/setup-config.php": "other",
	}
	for in, want := range tests {
		require.Equal(t, want, NormalizePath(in), in)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/accounts/signup/", "400"))

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/accounts/signup/", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/accounts/signup/", "400"))
	require.Equal(t, before+1, after)
}

func TestHandlerExposesMetrics(t *testing.T) {
	Middleware()(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "tukcommunity_http_requests_total"))
}
