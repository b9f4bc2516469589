package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/brandconnect/brandconnect-be/internal/http/respond"
)

// HealthCheck probes a dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler returns uptime and database status.
type HealthHandler struct {
	startedAt time.Time
	check     HealthCheck
}

// NewHealthHandler creates a health endpoint handler. check may be nil.
func NewHealthHandler(startedAt time.Time, check HealthCheck) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, check: check}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":   "ok",
		"database": "ok",
		"uptime":   time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			log.Printf("health check failed: %v", err)
			body["status"] = "degraded"
			body["database"] = "unavailable"
			respond.JSON(w, http.StatusServiceUnavailable, "service degraded", body)
			return
		}
	}
	respond.JSON(w, http.StatusOK, "service healthy", body)
}
