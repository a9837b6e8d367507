package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pinauth/pin-relay/internal/audit"
	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/service"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// POST /api/feedback
// POST /api/mobile/confirm-pin
func (h *FeedbackHandler) ConfirmPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PinID           string `json:"pinId"`
		UserAgreement   string `json:"userAgreement"`
		FeedbackComment string `json:"feedbackComment"`
	}
	if status, err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, status, err)
		return
	}

	pin, err := h.feedbackService.ConfirmPin(r.Context(), service.ConfirmPinParams{
		PinID:           req.PinID,
		UserAgreement:   req.UserAgreement,
		FeedbackComment: req.FeedbackComment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventFeedbackSubmitted,
		PinID:     pin.PinID,
		SessionID: pin.SessionID,
		Details: map[string]interface{}{
			"agreement":   string(*pin.UserAgreement),
			"has_comment": pin.FeedbackComment != nil,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pin":     pin,
	})
}

// POST /api/user-feedback
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnalysisID      int64  `json:"analysisId"`
		PinID           string `json:"pinId"`
		UserAgreement   string `json:"userAgreement"`
		FeedbackComment string `json:"feedbackComment"`
	}
	if status, err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, status, err)
		return
	}

	fb, err := h.feedbackService.CreateUserFeedback(r.Context(), service.CreateFeedbackParams{
		AnalysisID:      req.AnalysisID,
		PinID:           req.PinID,
		UserAgreement:   req.UserAgreement,
		FeedbackComment: req.FeedbackComment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:  audit.EventFeedbackSubmitted,
		PinID: fb.PinID,
		Details: map[string]interface{}{
			"analysis_id": fb.AnalysisID,
			"agreement":   string(fb.UserAgreement),
		},
	})

	writeJSON(w, http.StatusCreated, fb)
}

// GET /api/feedback
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackService.AllFeedback(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

// GET /api/feedback/{analysisId}
func (h *FeedbackHandler) GetByAnalysisID(w http.ResponseWriter, r *http.Request) {
	analysisID, err := strconv.ParseInt(chi.URLParam(r, "analysisId"), 10, 64)
	if err != nil {
		writeError(w, apperrors.InvalidInput("analysisId", "must be a number"))
		return
	}

	items, err := h.feedbackService.FeedbackByAnalysisID(r.Context(), analysisID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}
