package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pinauth/pin-relay/internal/service"
)

type PinHandler struct {
	verifyService *service.VerificationService
}

func NewPinHandler(verifyService *service.VerificationService) *PinHandler {
	return &PinHandler{verifyService: verifyService}
}

// GET /api/pins
func (h *PinHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pins, total, err := h.verifyService.RecentPins(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  pins,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GET /api/pins/{pinId}
func (h *PinHandler) Get(w http.ResponseWriter, r *http.Request) {
	pin, err := h.verifyService.PinByID(r.Context(), chi.URLParam(r, "pinId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pin)
}
