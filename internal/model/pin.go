package model

import (
	"time"
)

// PinIDPrefix is prepended to the session ID to form the canonical pin ID.
const PinIDPrefix = "pin_"

// Pin is the provisional record written as soon as the relay succeeds.
type Pin struct {
	ID                  int64          `db:"id" json:"id"`
	PinID               string         `db:"pin_id" json:"pinId"`
	SessionID           string         `db:"session_id" json:"sessionId"`
	Authentic           bool           `db:"authentic" json:"authentic"`
	AuthenticityRating  int            `db:"authenticity_rating" json:"authenticityRating"`
	UserAgreement       *UserAgreement `db:"user_agreement" json:"userAgreement"`
	FeedbackComment     *string        `db:"feedback_comment" json:"feedbackComment"`
	FeedbackSubmittedAt *time.Time     `db:"feedback_submitted_at" json:"feedbackSubmittedAt"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
}

type CreatePinParams struct {
	PinID              string
	SessionID          string
	Authentic          bool
	AuthenticityRating int
}

type UpdatePinFeedbackParams struct {
	PinID           string
	UserAgreement   UserAgreement
	FeedbackComment *string
}

// PinIDForSession derives the canonical pin ID for a session.
func PinIDForSession(sessionID string) string {
	return PinIDPrefix + sessionID
}
