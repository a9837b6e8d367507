package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/model"
	"github.com/pinauth/pin-relay/internal/relay"
	"github.com/pinauth/pin-relay/internal/repository"
)

const testSessionID = "250704120000"

type mockRelay struct {
	mock.Mock
}

func (m *mockRelay) Upload(ctx context.Context, sessionID string, images relay.Images, timeout time.Duration) (*model.AnalysisResult, error) {
	args := m.Called(sessionID, images, timeout)
	if r := args.Get(0); r != nil {
		return r.(*model.AnalysisResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRelay) Ping(ctx context.Context, timeout time.Duration) error {
	return m.Called(timeout).Error(0)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, sessionID string, images relay.Images) error {
	return m.Called(sessionID, images).Error(0)
}

type memoryCache struct {
	items map[string]model.AnalysisResult
}

func (c *memoryCache) Put(ctx context.Context, result model.AnalysisResult) error {
	c.items[result.SessionID] = result
	return nil
}

func (c *memoryCache) Get(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	r, ok := c.items[sessionID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

type verificationFixture struct {
	svc     *VerificationService
	relay   *mockRelay
	archive *mockArchive
	cache   *memoryCache
	store   *repository.MemoryStore
}

func newVerificationFixture() *verificationFixture {
	f := &verificationFixture{
		relay:   &mockRelay{},
		archive: &mockArchive{},
		cache:   &memoryCache{items: map[string]model.AnalysisResult{}},
		store:   repository.NewMemoryStore(),
	}
	f.svc = NewVerificationService(f.relay, f.store.Pins(), f.cache, f.archive, 180*time.Second, 10*time.Second)
	f.svc.newSessionID = func() string { return testSessionID }
	return f
}

func TestVerificationService_Verify(t *testing.T) {
	ctx := context.Background()
	images := relay.Images{Front: "data:image/png;base64,AAAA"}

	t.Run("stores provisional pin and caches result", func(t *testing.T) {
		f := newVerificationFixture()
		f.relay.On("Upload", testSessionID, images, 180*time.Second).Return(&model.AnalysisResult{
			Authentic:          true,
			AuthenticityRating: 80,
			Analysis:           "ok",
			SessionID:          testSessionID,
		}, nil)
		f.archive.On("Archive", testSessionID, images).Return(nil)

		out, err := f.svc.Verify(ctx, images)
		require.NoError(t, err)

		assert.Equal(t, "pin_"+testSessionID, out.PinID)
		assert.NotZero(t, out.ID)
		assert.Equal(t, 80, out.AuthenticityRating)

		pin, err := f.store.Pins().FindByPinID(ctx, out.PinID)
		require.NoError(t, err)
		require.NotNil(t, pin)
		assert.Equal(t, out.ID, pin.ID)
		assert.True(t, pin.Authentic)
		assert.Nil(t, pin.UserAgreement)

		cached, err := f.svc.Result(ctx, testSessionID)
		require.NoError(t, err)
		assert.Equal(t, "ok", cached.Analysis)

		f.relay.AssertExpectations(t)
		f.archive.AssertExpectations(t)
	})

	t.Run("missing front image never reaches the relay", func(t *testing.T) {
		f := newVerificationFixture()

		_, err := f.svc.Verify(ctx, relay.Images{Back: "BBBB"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
		f.relay.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("relay failure stores nothing", func(t *testing.T) {
		f := newVerificationFixture()
		f.relay.On("Upload", testSessionID, images, 180*time.Second).
			Return(nil, apperrors.Timeout(context.DeadlineExceeded))

		_, err := f.svc.Verify(ctx, images)
		assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.GetCode(err))

		count, _ := f.store.Pins().Count(ctx)
		assert.Equal(t, 0, count)
		f.archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
	})

	t.Run("archive failure does not fail the upload", func(t *testing.T) {
		f := newVerificationFixture()
		f.relay.On("Upload", testSessionID, images, 180*time.Second).
			Return(&model.AnalysisResult{SessionID: testSessionID}, nil)
		f.archive.On("Archive", testSessionID, images).Return(errors.New("bucket missing"))

		out, err := f.svc.Verify(ctx, images)
		require.NoError(t, err)
		assert.NotZero(t, out.ID)
	})
}

func TestVerificationService_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("result rejects malformed session id", func(t *testing.T) {
		f := newVerificationFixture()
		_, err := f.svc.Result(ctx, "abc")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("result miss is not found", func(t *testing.T) {
		f := newVerificationFixture()
		_, err := f.svc.Result(ctx, testSessionID)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("pin lookup accepts bare session id", func(t *testing.T) {
		f := newVerificationFixture()
		created, err := f.store.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_" + testSessionID, SessionID: testSessionID})
		require.NoError(t, err)

		pin, err := f.svc.PinByID(ctx, testSessionID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, pin.ID)
	})

	t.Run("unknown pin is not found", func(t *testing.T) {
		f := newVerificationFixture()
		_, err := f.svc.PinByID(ctx, "pin_999999999999")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("recent pins reports total", func(t *testing.T) {
		f := newVerificationFixture()
		for i := 0; i < 3; i++ {
			f.store.Pins().Create(ctx, model.CreatePinParams{PinID: "pin_" + testSessionID, SessionID: testSessionID})
		}

		pins, total, err := f.svc.RecentPins(ctx, 2, 0)
		require.NoError(t, err)
		assert.Len(t, pins, 2)
		assert.Equal(t, 3, total)
	})

	t.Run("remote health uses health budget", func(t *testing.T) {
		f := newVerificationFixture()
		f.relay.On("Ping", 10*time.Second).Return(nil)

		assert.NoError(t, f.svc.RemoteHealth(ctx))
		f.relay.AssertExpectations(t)
	})
}
