package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOperation(t *testing.T) {
	m := New()
	m.Operation("login", nil)
	m.Operation("login", service.ErrIncorrectCredentials)
	m.Operation("login", service.ErrIncorrectCredentials)
	m.Operation("logout", fmt.Errorf("%w: %w", service.ErrInvalidToken, service.ErrRevokedToken))
	m.Operation("logout", errors.New("connection reset"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("login", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("login", "incorrect_credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("logout", "revoked_token")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("logout", "unexpected")))
}

func TestMiddlewareUsesPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := m.Middleware(mux)

	for range 3 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	require.Equal(t, 3.0, testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "POST /login", "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Operation("signup", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `doorman_auth_operations_total{operation="signup",outcome="ok"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}
