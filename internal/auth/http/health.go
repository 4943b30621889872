package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	StartTime time.Time
	Version   string
	Store     store.Store
}

func (h *HealthHandler) report(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
		Version: h.Version,
		Checks:  checks,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 whenever the process is serving requests
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.report("ok", nil))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the database; 503 when it is unreachable
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"database unreachable"
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := &authsdk.HealthChecks{Database: "ok"}
	if err := h.Store.Ping(r.Context()); err != nil {
		checks.Database = "error: " + err.Error()
		httpx.WriteJSON(w, http.StatusServiceUnavailable, h.report("degraded", checks))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.report("ok", checks))
}
