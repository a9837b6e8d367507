package model

import "time"

type Feedback struct {
	ID              int64         `db:"id" json:"id"`
	AnalysisID      int64         `db:"analysis_id" json:"analysisId"`
	PinID           string        `db:"pin_id" json:"pinId"`
	UserAgreement   UserAgreement `db:"user_agreement" json:"userAgreement"`
	FeedbackComment *string       `db:"feedback_comment" json:"feedbackComment"`
	SubmittedAt     time.Time     `db:"submitted_at" json:"submittedAt"`
}

type CreateFeedbackParams struct {
	AnalysisID      int64
	PinID           string
	UserAgreement   UserAgreement
	FeedbackComment *string
}
