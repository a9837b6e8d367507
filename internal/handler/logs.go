package handler

import (
	"net/http"

	"github.com/pinauth/pin-relay/internal/audit"
	"github.com/pinauth/pin-relay/internal/relay"
)

// LogHandler exposes the in-memory relay log the client shows for
// diagnostics.
type LogHandler struct {
	logs *relay.LogBuffer
}

func NewLogHandler(logs *relay.LogBuffer) *LogHandler {
	return &LogHandler{logs: logs}
}

// GET /api/logs
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.logs.Entries()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"total": len(entries),
	})
}

// DELETE /api/logs
func (h *LogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cleared := h.logs.Len()
	h.logs.Clear()

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLogsCleared,
		Details: map[string]interface{}{"cleared": cleared},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cleared": cleared,
	})
}
