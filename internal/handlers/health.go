package handlers

import (
	"context"
	"net/http"
	"time"

	"FINTRACK_BACK-END/internal/dto"
	"FINTRACK_BACK-END/internal/logger"
	"FINTRACK_BACK-END/internal/utils"
)

const readinessTimeout = 3 * time.Second

// Pinger reports backing store connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness endpoints
type HealthHandler struct {
	db      Pinger
	backend string
}

// NewHealthHandler creates a HealthHandler for the store behind db.
// backend is the configured driver name.
func NewHealthHandler(db Pinger, backend string) *HealthHandler {
	return &HealthHandler{db: db, backend: backend}
}

// HealthCheck handles basic health check (no database)
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, dto.HealthResponse{Status: "ok", Backend: h.backend})
}

// LivenessCheck handles process liveness check
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, dto.HealthResponse{Status: "alive"})
}

// ReadinessCheck pings the store
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(r.Context()).WarnContext(r.Context(), "readiness ping failed",
			"backend", h.backend,
			logger.FieldError, err)
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, dto.HealthResponse{
			Status:  "degraded",
			Backend: h.backend,
			Details: map[string]string{"db": "unreachable"},
		})
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.HealthResponse{
		Status:  "ready",
		Backend: h.backend,
		Details: map[string]string{"db": "ok"},
	})
}
