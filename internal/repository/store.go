package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pinauth/pin-relay/internal/database"
)

// Store hands out the pin and feedback repositories and runs units of work
// that write to both.
type Store interface {
	Pins() PinRepository
	Feedback() FeedbackRepository
	// InTx runs fn against repositories bound to one transaction. Nothing
	// written through them survives when fn returns an error.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Pins() PinRepository {
	return NewPinRepository(s.db.DB)
}

func (s *PostgresStore) Feedback() FeedbackRepository {
	return NewFeedbackRepository(s.db.DB)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (s postgresTx) Pins() PinRepository {
	return NewPinRepository(s.tx)
}

func (s postgresTx) Feedback() FeedbackRepository {
	return NewFeedbackRepository(s.tx)
}

// InTx joins the enclosing transaction.
func (s postgresTx) InTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}
