package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

type health struct {
	startTime time.Time
	version   string
}

func (h health) response(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
		Checks:  checks,
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness check
//	@Description	Always 200 while the process is serving. Touches no backend.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	h := health{startTime: startTime, version: version}
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, h.response("ok", nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Pings every store backend and checks a signing key is loaded.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"one or more checks failed"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, stores store.Pinger, keys *jwtx.KeySet) http.HandlerFunc {
	h := health{startTime: startTime, version: version}
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Stores: "ok", Signer: "ok"}
		status, code := "ok", http.StatusOK

		if err := stores.Ping(r.Context()); err != nil {
			checks.Stores = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, h.response(status, checks))
	}
}
