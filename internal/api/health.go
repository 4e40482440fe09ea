package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache reachability.
type HealthHandler struct {
	DB    *sql.DB
	Cache Pinger
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if err := h.DB.PingContext(ctx); err != nil {
		status["status"] = "unavailable"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if h.Cache != nil {
		status["cache"] = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			status["cache"] = err.Error()
		}
	}

	jsonResponse(w, code, status)
}
