package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/model"
	"github.com/pinauth/pin-relay/internal/repository"
)

const maxFeedbackCommentLen = 2000

type ConfirmPinParams struct {
	PinID           string
	UserAgreement   string
	FeedbackComment string
}

type FeedbackService struct {
	store repository.Store
}

func NewFeedbackService(store repository.Store) *FeedbackService {
	return &FeedbackService{store: store}
}

// ConfirmPin records the user's verdict on the pin and appends it to the
// feedback log under the pin's numeric id. Both writes share one
// transaction.
func (s *FeedbackService) ConfirmPin(ctx context.Context, params ConfirmPinParams) (*model.Pin, error) {
	pinID := CanonicalPinID(params.PinID)
	if pinID == "" {
		return nil, apperrors.MissingRequired("pinId")
	}
	agreement, err := parseAgreement(params.UserAgreement)
	if err != nil {
		return nil, err
	}
	comment, err := normalizeComment(params.FeedbackComment)
	if err != nil {
		return nil, err
	}

	var pin *model.Pin
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		updated, err := tx.Pins().UpdateFeedback(ctx, model.UpdatePinFeedbackParams{
			PinID:           pinID,
			UserAgreement:   agreement,
			FeedbackComment: comment,
		})
		if err != nil {
			return apperrors.Database(err)
		}
		if updated == nil {
			return apperrors.NotFound("Pin")
		}

		_, err = tx.Feedback().Create(ctx, model.CreateFeedbackParams{
			AnalysisID:      updated.ID,
			PinID:           updated.PinID,
			UserAgreement:   agreement,
			FeedbackComment: comment,
		})
		if err != nil {
			return apperrors.Database(err)
		}
		pin = updated
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("pinId", pin.PinID).
		Int64("id", pin.ID).
		Str("agreement", string(agreement)).
		Msg("pin feedback recorded")

	return pin, nil
}

type CreateFeedbackParams struct {
	AnalysisID      int64
	PinID           string
	UserAgreement   string
	FeedbackComment string
}

// CreateUserFeedback appends a feedback row without touching the pin.
// Nothing is written when the agreement is not agree or disagree.
func (s *FeedbackService) CreateUserFeedback(ctx context.Context, params CreateFeedbackParams) (*model.Feedback, error) {
	agreement, err := parseAgreement(params.UserAgreement)
	if err != nil {
		return nil, err
	}
	comment, err := normalizeComment(params.FeedbackComment)
	if err != nil {
		return nil, err
	}

	fb, err := s.store.Feedback().Create(ctx, model.CreateFeedbackParams{
		AnalysisID:      params.AnalysisID,
		PinID:           CanonicalPinID(params.PinID),
		UserAgreement:   agreement,
		FeedbackComment: comment,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return fb, nil
}

func (s *FeedbackService) FeedbackByAnalysisID(ctx context.Context, analysisID int64) ([]model.Feedback, error) {
	items, err := s.store.Feedback().FindByAnalysisID(ctx, analysisID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return items, nil
}

func (s *FeedbackService) AllFeedback(ctx context.Context) ([]model.Feedback, error) {
	items, err := s.store.Feedback().FindAll(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return items, nil
}

func parseAgreement(raw string) (model.UserAgreement, error) {
	if raw == "" {
		return "", apperrors.MissingRequired("userAgreement")
	}
	agreement := model.UserAgreement(strings.ToLower(strings.TrimSpace(raw)))
	if !agreement.Valid() {
		return "", apperrors.ValidationError("userAgreement must be 'agree' or 'disagree'")
	}
	return agreement, nil
}

func normalizeComment(raw string) (*string, error) {
	comment := strings.TrimSpace(raw)
	if comment == "" {
		return nil, nil
	}
	if len(comment) > maxFeedbackCommentLen {
		return nil, apperrors.InvalidInput("feedbackComment", "too long")
	}
	return &comment, nil
}
