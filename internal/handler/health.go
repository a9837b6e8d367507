package handler

import (
	"net/http"
	"time"

	"github.com/pinauth/pin-relay/internal/jobs"
	"github.com/pinauth/pin-relay/internal/service"
)

type HealthHandler struct {
	verifyService *service.VerificationService
	monitor       *jobs.HealthMonitor
}

func NewHealthHandler(verifyService *service.VerificationService, monitor *jobs.HealthMonitor) *HealthHandler {
	return &HealthHandler{verifyService: verifyService, monitor: monitor}
}

// GET /health
// Liveness only; the remote status is informational.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	}
	if h.monitor != nil {
		if status := h.monitor.Status(); !status.CheckedAt.IsZero() {
			body["master"] = status
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /api/health/master
func (h *HealthHandler) Master(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.verifyService.RemoteHealth(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"latencyMs": time.Since(start).Milliseconds(),
	})
}
