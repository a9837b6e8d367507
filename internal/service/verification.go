package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/model"
	"github.com/pinauth/pin-relay/internal/relay"
	"github.com/pinauth/pin-relay/internal/repository"
)

// Relay is the remote authentication service as seen by the services.
type Relay interface {
	Upload(ctx context.Context, sessionID string, images relay.Images, timeout time.Duration) (*model.AnalysisResult, error)
	Ping(ctx context.Context, timeout time.Duration) error
}

type ImageArchive interface {
	Archive(ctx context.Context, sessionID string, images relay.Images) error
}

// VerificationResult is the normalized analysis plus the provisional pin it
// was stored under.
type VerificationResult struct {
	model.AnalysisResult
	ID    int64  `json:"id"`
	PinID string `json:"pinId"`
}

type VerificationService struct {
	relay         Relay
	pinRepo       repository.PinRepository
	cache         ResultCache
	archive       ImageArchive
	uploadTimeout time.Duration
	healthTimeout time.Duration
	newSessionID  func() string
}

func NewVerificationService(
	relayClient Relay,
	pinRepo repository.PinRepository,
	cache ResultCache,
	archive ImageArchive,
	uploadTimeout time.Duration,
	healthTimeout time.Duration,
) *VerificationService {
	if cache == nil {
		cache = NopResultCache{}
	}
	return &VerificationService{
		relay:         relayClient,
		pinRepo:       pinRepo,
		cache:         cache,
		archive:       archive,
		uploadTimeout: uploadTimeout,
		healthTimeout: healthTimeout,
		newSessionID:  relay.GenerateSessionID,
	}
}

// Verify relays one capture session and records the provisional pin. Only
// the relay call can fail the request; storing, caching and archiving are
// logged and skipped on error.
func (s *VerificationService) Verify(ctx context.Context, images relay.Images) (*VerificationResult, error) {
	if relay.StripDataURI(images.Front) == "" {
		return nil, apperrors.MissingRequired("frontImageData")
	}

	sessionID := s.newSessionID()

	result, err := s.relay.Upload(ctx, sessionID, images, s.uploadTimeout)
	if err != nil {
		return nil, err
	}

	out := &VerificationResult{
		AnalysisResult: *result,
		PinID:          model.PinIDForSession(sessionID),
	}

	pin, err := s.pinRepo.Create(ctx, model.CreatePinParams{
		PinID:              out.PinID,
		SessionID:          sessionID,
		Authentic:          result.Authentic,
		AuthenticityRating: result.AuthenticityRating,
	})
	if err != nil {
		log.Error().Err(err).Str("pinId", out.PinID).Msg("failed to store provisional pin")
	} else {
		out.ID = pin.ID
	}

	cached := *result
	cached.SessionID = sessionID
	if err := s.cache.Put(ctx, cached); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to cache result")
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, sessionID, images); err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to archive images")
		}
	}

	return out, nil
}

func (s *VerificationService) Result(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	if !relay.ValidSessionID(sessionID) {
		return nil, apperrors.InvalidInput("sessionId", "must be exactly 12 digits")
	}

	result, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to read cached result")
		return nil, apperrors.Internal("failed to read result").WithCause(err)
	}
	if result == nil {
		return nil, apperrors.NotFound("Result")
	}
	return result, nil
}

func (s *VerificationService) PinByID(ctx context.Context, pinID string) (*model.Pin, error) {
	pinID = CanonicalPinID(pinID)
	if pinID == "" {
		return nil, apperrors.MissingRequired("pinId")
	}

	pin, err := s.pinRepo.FindByPinID(ctx, pinID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pin == nil {
		return nil, apperrors.NotFound("Pin")
	}
	return pin, nil
}

// RecentPins pages through stored pins, newest first.
func (s *VerificationService) RecentPins(ctx context.Context, limit, offset int) ([]model.Pin, int, error) {
	pins, err := s.pinRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.pinRepo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return pins, total, nil
}

// RemoteHealth pings the authentication service within the health budget.
func (s *VerificationService) RemoteHealth(ctx context.Context) error {
	return s.relay.Ping(ctx, s.healthTimeout)
}
