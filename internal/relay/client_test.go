package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/model"
)

const testSessionID = "250704120000"

func TestBuildUploadRequest(t *testing.T) {
	t.Run("strips prefix and omits missing images", func(t *testing.T) {
		req, err := BuildUploadRequest(testSessionID, Images{Front: "data:image/png;base64,AAAA"})
		require.NoError(t, err)

		data, err := json.Marshal(req)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, map[string]any{
			"sessionId":      testSessionID,
			"frontImageData": "AAAA",
		}, body)
	})

	t.Run("includes back and angled when captured", func(t *testing.T) {
		req, err := BuildUploadRequest(testSessionID, Images{
			Front:  "AAAA",
			Back:   "data:image/jpeg;base64,BBBB",
			Angled: "CCCC",
		})
		require.NoError(t, err)
		require.NotNil(t, req.BackImageData)
		require.NotNil(t, req.AngledImageData)
		assert.Equal(t, "BBBB", *req.BackImageData)
		assert.Equal(t, "CCCC", *req.AngledImageData)
	})

	t.Run("rejects malformed session id", func(t *testing.T) {
		_, err := BuildUploadRequest("pin_1", Images{Front: "AAAA"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects missing front image", func(t *testing.T) {
		_, err := BuildUploadRequest(testSessionID, Images{Back: "BBBB"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("a bare data uri prefix counts as missing", func(t *testing.T) {
		_, err := BuildUploadRequest(testSessionID, Images{Front: "data:image/png;base64,"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}

func TestClient_Upload(t *testing.T) {
	t.Run("sends headers and body and normalizes reply", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/mobile-upload", r.URL.Path)
			assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			data, _ := io.ReadAll(r.Body)
			json.Unmarshal(data, &gotBody)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"analysisReport": "Final Rating: 4/5"}`))
		}))
		defer server.Close()

		logs := NewLogBuffer(10)
		client := NewClient(server.URL+"/", "secret-key", WithLogSink(logs))

		result, err := client.Upload(context.Background(), testSessionID, Images{Front: "data:image/png;base64,AAAA"}, time.Second)
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"sessionId": testSessionID, "frontImageData": "AAAA"}, gotBody)
		assert.Equal(t, 80, result.AuthenticityRating)
		assert.True(t, result.Authentic)
		assert.Equal(t, testSessionID, result.SessionID)

		entries := logs.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, model.LogKindRequest, entries[0].Kind)
		assert.Equal(t, model.LogKindResponse, entries[1].Kind)
		assert.Equal(t, http.StatusOK, entries[1].Status)
	})

	t.Run("uses configured upload path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/proxy/upload", r.URL.Path)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "k", WithUploadPath("/api/proxy/upload"))
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)
		require.NoError(t, err)
	})

	t.Run("503 is tagged service unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("maintenance"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "k")
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeServiceUnavailable, appErr.Code)
		assert.Equal(t, apperrors.RemoteDetails{Status: 503, Body: "maintenance"}, appErr.Details)
	})

	t.Run("500 is a remote service error with body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"model crashed"}`))
		}))
		defer server.Close()

		logs := NewLogBuffer(10)
		client := NewClient(server.URL, "k", WithLogSink(logs))
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeRemoteService, appErr.Code)
		assert.Equal(t, apperrors.RemoteDetails{Status: 500, Body: `{"error":"model crashed"}`}, appErr.Details)

		entries := logs.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, model.LogKindError, entries[1].Kind)
		assert.Equal(t, 500, entries[1].Status)
	})

	t.Run("invalid json on 200 is a remote service error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>proxy page</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "k")
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)
		assert.Equal(t, apperrors.ErrCodeRemoteService, apperrors.GetCode(err))
	})

	t.Run("times out when the remote never responds", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer server.Close()
		defer close(release)

		client := NewClient(server.URL, "k")

		start := time.Now()
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, 50*time.Millisecond)
		elapsed := time.Since(start)

		assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.GetCode(err))
		assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
	})

	t.Run("connection failure is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewClient(url, "k")
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)
		assert.Equal(t, apperrors.ErrCodeNetwork, apperrors.GetCode(err))
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("validation fails before any request", func(t *testing.T) {
		var called atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
		}))
		defer server.Close()

		client := NewClient(server.URL, "k")
		_, err := client.Upload(context.Background(), "123", Images{Front: "AAAA"}, time.Second)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
		assert.False(t, called.Load())
	})

	t.Run("does not retry", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "k")
		_, err := client.Upload(context.Background(), testSessionID, Images{Front: "AAAA"}, time.Second)
		assert.Equal(t, apperrors.ErrCodeServiceUnavailable, apperrors.GetCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Ping(t *testing.T) {
	t.Run("healthy remote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		assert.NoError(t, NewClient(server.URL, "k").Ping(context.Background(), time.Second))
	})

	t.Run("unhealthy remote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		err := NewClient(server.URL, "k").Ping(context.Background(), time.Second)
		assert.Equal(t, apperrors.ErrCodeServiceUnavailable, apperrors.GetCode(err))
	})
}
