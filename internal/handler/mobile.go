package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pinauth/pin-relay/internal/audit"
	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/relay"
	"github.com/pinauth/pin-relay/internal/service"
)

type MobileHandler struct {
	verifyService *service.VerificationService
}

func NewMobileHandler(verifyService *service.VerificationService) *MobileHandler {
	return &MobileHandler{verifyService: verifyService}
}

// uploadRequest accepts both field spellings the clients have used.
type uploadRequest struct {
	FrontImageBase64  string `json:"frontImageBase64"`
	FrontImageData    string `json:"frontImageData"`
	BackImageBase64   string `json:"backImageBase64"`
	BackImageData     string `json:"backImageData"`
	AngledImageBase64 string `json:"angledImageBase64"`
	AngledImageData   string `json:"angledImageData"`
}

func (req uploadRequest) images() relay.Images {
	return relay.Images{
		Front:  firstNonEmpty(req.FrontImageBase64, req.FrontImageData),
		Back:   firstNonEmpty(req.BackImageBase64, req.BackImageData),
		Angled: firstNonEmpty(req.AngledImageBase64, req.AngledImageData),
	}
}

// POST /mobile-upload
// POST /api/mobile/verify-pin
func (h *MobileHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if status, err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, status, err)
		return
	}

	images := req.images()
	result, err := h.verifyService.Verify(r.Context(), images)
	if err != nil {
		if code := apperrors.GetCode(err); code != apperrors.ErrCodeMissingRequired {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRelayFailed,
				Details: map[string]interface{}{"code": string(code), "cause": err},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventPinCreated,
		PinID:     result.PinID,
		SessionID: result.SessionID,
		Details: map[string]interface{}{
			"id":        result.ID,
			"rating":    result.AuthenticityRating,
			"authentic": result.Authentic,
			"back":      images.Back != "",
			"angled":    images.Angled != "",
		},
	})

	writeJSON(w, http.StatusOK, result)
}

// GET /api/mobile/result/{sessionId}
func (h *MobileHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.verifyService.Result(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
