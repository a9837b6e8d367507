package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pinauth/pin-relay/internal/model"
)

// PinRepository stores provisional pin records. Records are never deleted.
// When two uploads share a session ID the newest row wins on lookup.
type PinRepository interface {
	Create(ctx context.Context, params model.CreatePinParams) (*model.Pin, error)
	FindByID(ctx context.Context, id int64) (*model.Pin, error)
	FindByPinID(ctx context.Context, pinID string) (*model.Pin, error)
	// UpdateFeedback returns nil, nil when no pin matches.
	UpdateFeedback(ctx context.Context, params model.UpdatePinFeedbackParams) (*model.Pin, error)
	List(ctx context.Context, limit, offset int) ([]model.Pin, error)
	Count(ctx context.Context) (int, error)
}

type pinRepo struct {
	db sqlx.ExtContext
}

func NewPinRepository(db sqlx.ExtContext) PinRepository {
	return &pinRepo{db: db}
}

func (r *pinRepo) Create(ctx context.Context, params model.CreatePinParams) (*model.Pin, error) {
	var pin model.Pin
	err := sqlx.GetContext(ctx, r.db, &pin, `
		INSERT INTO pins (pin_id, session_id, authentic, authenticity_rating)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.PinID, params.SessionID, params.Authentic, params.AuthenticityRating)
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

func (r *pinRepo) FindByID(ctx context.Context, id int64) (*model.Pin, error) {
	return getOne[model.Pin](ctx, r.db, `SELECT * FROM pins WHERE id = $1`, id)
}

func (r *pinRepo) FindByPinID(ctx context.Context, pinID string) (*model.Pin, error) {
	return getOne[model.Pin](ctx, r.db, `
		SELECT * FROM pins
		WHERE pin_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, pinID)
}

func (r *pinRepo) UpdateFeedback(ctx context.Context, params model.UpdatePinFeedbackParams) (*model.Pin, error) {
	return getOne[model.Pin](ctx, r.db, `
		UPDATE pins SET
			user_agreement = $2,
			feedback_comment = $3,
			feedback_submitted_at = $4
		WHERE id = (SELECT id FROM pins WHERE pin_id = $1 ORDER BY id DESC LIMIT 1)
		RETURNING *
	`, params.PinID, params.UserAgreement, params.FeedbackComment, time.Now())
}

func (r *pinRepo) List(ctx context.Context, limit, offset int) ([]model.Pin, error) {
	pins := []model.Pin{}
	limit, offset, ok := normalizePage(limit, offset)
	if !ok {
		return pins, nil
	}
	err := sqlx.SelectContext(ctx, r.db, &pins, `
		SELECT * FROM pins
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return pins, err
}

func (r *pinRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM pins`)
	return count, err
}
