package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pins (
		id                    BIGSERIAL PRIMARY KEY,
		pin_id                TEXT NOT NULL,
		session_id            TEXT NOT NULL,
		authentic             BOOLEAN NOT NULL DEFAULT FALSE,
		authenticity_rating   INTEGER NOT NULL DEFAULT 0,
		user_agreement        TEXT NULL CHECK (user_agreement IN ('agree', 'disagree')),
		feedback_comment      TEXT NULL,
		feedback_submitted_at TIMESTAMPTZ NULL,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_feedback (
		id               BIGSERIAL PRIMARY KEY,
		analysis_id      BIGINT NOT NULL,
		pin_id           TEXT NOT NULL,
		user_agreement   TEXT NOT NULL CHECK (user_agreement IN ('agree', 'disagree')),
		feedback_comment TEXT NULL,
		submitted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pins_pin_id ON pins (pin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_feedback_analysis_id ON user_feedback (analysis_id)`,
}

// Migrate creates the pin and feedback tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
