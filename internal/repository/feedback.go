package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pinauth/pin-relay/internal/model"
)

// FeedbackRepository is an append-only log of user agreement responses.
// Callers validate UserAgreement before Create.
type FeedbackRepository interface {
	Create(ctx context.Context, params model.CreateFeedbackParams) (*model.Feedback, error)
	FindByAnalysisID(ctx context.Context, analysisID int64) ([]model.Feedback, error)
	FindAll(ctx context.Context) ([]model.Feedback, error)
	Count(ctx context.Context) (int, error)
}

type feedbackRepo struct {
	db sqlx.ExtContext
}

func NewFeedbackRepository(db sqlx.ExtContext) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, params model.CreateFeedbackParams) (*model.Feedback, error) {
	var fb model.Feedback
	err := sqlx.GetContext(ctx, r.db, &fb, `
		INSERT INTO user_feedback (analysis_id, pin_id, user_agreement, feedback_comment)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.AnalysisID, params.PinID, params.UserAgreement, params.FeedbackComment)
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepo) FindByAnalysisID(ctx context.Context, analysisID int64) ([]model.Feedback, error) {
	feedback := []model.Feedback{}
	err := sqlx.SelectContext(ctx, r.db, &feedback, `
		SELECT * FROM user_feedback
		WHERE analysis_id = $1
		ORDER BY submitted_at ASC, id ASC
	`, analysisID)
	return feedback, err
}

func (r *feedbackRepo) FindAll(ctx context.Context) ([]model.Feedback, error) {
	feedback := []model.Feedback{}
	err := sqlx.SelectContext(ctx, r.db, &feedback, `
		SELECT * FROM user_feedback
		ORDER BY submitted_at DESC, id DESC
	`)
	return feedback, err
}

func (r *feedbackRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM user_feedback`)
	return count, err
}
