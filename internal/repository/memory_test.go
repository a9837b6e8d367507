package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinauth/pin-relay/internal/model"
)

func strPtr(s string) *string { return &s }

func TestMemoryPinRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create then find by pin id", func(t *testing.T) {
		repo := NewMemoryStore().Pins()

		created, err := repo.Create(ctx, model.CreatePinParams{
			PinID:              "pin_250704120000",
			SessionID:          "250704120000",
			Authentic:          true,
			AuthenticityRating: 80,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := repo.FindByPinID(ctx, "pin_250704120000")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "pin_250704120000", found.PinID)
		assert.NotZero(t, found.ID)
		assert.Nil(t, found.UserAgreement)
	})

	t.Run("find returns nil for unknown pin", func(t *testing.T) {
		repo := NewMemoryStore().Pins()

		found, err := repo.FindByPinID(ctx, "pin_000000000000")
		require.NoError(t, err)
		assert.Nil(t, found)

		byID, err := repo.FindByID(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, byID)
	})

	t.Run("update feedback sets agreement comment and timestamp", func(t *testing.T) {
		repo := NewMemoryStore().Pins()
		_, err := repo.Create(ctx, model.CreatePinParams{PinID: "pin_a", SessionID: "a"})
		require.NoError(t, err)

		updated, err := repo.UpdateFeedback(ctx, model.UpdatePinFeedbackParams{
			PinID:           "pin_a",
			UserAgreement:   model.AgreementDisagree,
			FeedbackComment: strPtr("back stamp is wrong"),
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		require.NotNil(t, updated.UserAgreement)
		assert.Equal(t, model.AgreementDisagree, *updated.UserAgreement)
		assert.Equal(t, "back stamp is wrong", *updated.FeedbackComment)
		assert.NotNil(t, updated.FeedbackSubmittedAt)
	})

	t.Run("update feedback on unknown pin returns nil", func(t *testing.T) {
		repo := NewMemoryStore().Pins()

		updated, err := repo.UpdateFeedback(ctx, model.UpdatePinFeedbackParams{
			PinID:         "pin_missing",
			UserAgreement: model.AgreementAgree,
		})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("duplicate session ids resolve to newest row", func(t *testing.T) {
		repo := NewMemoryStore().Pins()
		_, _ = repo.Create(ctx, model.CreatePinParams{PinID: "pin_dup", AuthenticityRating: 10})
		second, _ := repo.Create(ctx, model.CreatePinParams{PinID: "pin_dup", AuthenticityRating: 90})

		found, err := repo.FindByPinID(ctx, "pin_dup")
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)

		count, _ := repo.Count(ctx)
		assert.Equal(t, 2, count)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := NewMemoryStore().Pins()
		created, _ := repo.Create(ctx, model.CreatePinParams{PinID: "pin_c"})
		created.PinID = "mutated"

		found, _ := repo.FindByID(ctx, created.ID)
		assert.Equal(t, "pin_c", found.PinID)
	})

	t.Run("list is newest first with paging", func(t *testing.T) {
		repo := NewMemoryStore().Pins()
		for _, id := range []string{"pin_1", "pin_2", "pin_3"} {
			_, _ = repo.Create(ctx, model.CreatePinParams{PinID: id})
		}

		page, err := repo.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "pin_3", page[0].PinID)
		assert.Equal(t, "pin_2", page[1].PinID)

		page, err = repo.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "pin_1", page[0].PinID)
	})

	t.Run("list tolerates out of range paging", func(t *testing.T) {
		repo := NewMemoryStore().Pins()
		_, _ = repo.Create(ctx, model.CreatePinParams{PinID: "pin_1"})

		page, err := repo.List(ctx, 10, -5)
		require.NoError(t, err)
		require.Len(t, page, 1)

		page, err = repo.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, page)

		page, err = repo.List(ctx, -1, 0)
		require.NoError(t, err)
		assert.Empty(t, page)

		page, err = repo.List(ctx, 10, 50)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestMemoryStore_InTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		store := NewMemoryStore()
		_, _ = store.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_a"})

		err := store.InTx(ctx, func(tx Store) error {
			pin, err := tx.Pins().UpdateFeedback(ctx, model.UpdatePinFeedbackParams{
				PinID:         "pin_a",
				UserAgreement: model.AgreementAgree,
			})
			if err != nil {
				return err
			}
			_, err = tx.Feedback().Create(ctx, model.CreateFeedbackParams{
				AnalysisID:    pin.ID,
				PinID:         pin.PinID,
				UserAgreement: model.AgreementAgree,
			})
			return err
		})
		require.NoError(t, err)

		found, _ := store.Pins().FindByPinID(ctx, "pin_a")
		require.NotNil(t, found.UserAgreement)
		count, _ := store.Feedback().Count(ctx)
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		store := NewMemoryStore()
		_, _ = store.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_a"})

		failure := errors.New("disk full")
		err := store.InTx(ctx, func(tx Store) error {
			_, _ = tx.Pins().UpdateFeedback(ctx, model.UpdatePinFeedbackParams{
				PinID:           "pin_a",
				UserAgreement:   model.AgreementDisagree,
				FeedbackComment: strPtr("wrong backstamp"),
			})
			_, _ = tx.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_b"})
			_, _ = tx.Feedback().Create(ctx, model.CreateFeedbackParams{PinID: "pin_a", UserAgreement: model.AgreementDisagree})
			return failure
		})
		assert.ErrorIs(t, err, failure)

		found, _ := store.Pins().FindByPinID(ctx, "pin_a")
		assert.Nil(t, found.UserAgreement)
		assert.Nil(t, found.FeedbackComment)
		pins, _ := store.Pins().Count(ctx)
		assert.Equal(t, 1, pins)
		feedback, _ := store.Feedback().Count(ctx)
		assert.Equal(t, 0, feedback)
	})

	t.Run("rolls back and repanics", func(t *testing.T) {
		store := NewMemoryStore()

		assert.Panics(t, func() {
			_ = store.InTx(ctx, func(tx Store) error {
				_, _ = tx.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_a"})
				panic("boom")
			})
		})

		count, _ := store.Pins().Count(ctx)
		assert.Equal(t, 0, count)
	})
}

func TestMemoryFeedbackRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Feedback()

	first, err := repo.Create(ctx, model.CreateFeedbackParams{
		AnalysisID:    7,
		PinID:         "pin_a",
		UserAgreement: model.AgreementAgree,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Nil(t, first.FeedbackComment)

	_, err = repo.Create(ctx, model.CreateFeedbackParams{
		AnalysisID:      8,
		PinID:           "pin_b",
		UserAgreement:   model.AgreementDisagree,
		FeedbackComment: strPtr("fake"),
	})
	require.NoError(t, err)

	t.Run("find by analysis id is an exact match", func(t *testing.T) {
		found, err := repo.FindByAnalysisID(ctx, 7)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "pin_a", found[0].PinID)

		none, err := repo.FindByAnalysisID(ctx, 70)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("find all returns every row newest first", func(t *testing.T) {
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "pin_b", all[0].PinID)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
