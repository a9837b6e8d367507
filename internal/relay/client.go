package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/model"
)

const (
	DefaultUploadPath    = "/mobile-upload"
	DefaultHealthPath    = "/health"
	DefaultUploadTimeout = 180 * time.Second
	DefaultHealthTimeout = 10 * time.Second

	maxResponseBytes = 10 << 20
	maxErrorBodyLen  = 2048
)

// Images holds the captured photos as base64, with or without a data URI
// prefix. Back and Angled are optional.
type Images struct {
	Front  string
	Back   string
	Angled string
}

// Client forwards captured images to the remote authentication service.
// It never retries; a failed call is classified and returned to the caller.
type Client struct {
	baseURL        string
	uploadPath     string
	apiKey         string
	client         *http.Client
	logs           LogSink
	defaultTimeout time.Duration
	now            func() time.Time
}

type ClientOption func(*Client)

func WithUploadPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.uploadPath = path
		}
	}
}

func WithLogSink(sink LogSink) ClientOption {
	return func(c *Client) {
		if sink != nil {
			c.logs = sink
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.defaultTimeout = timeout
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		uploadPath:     DefaultUploadPath,
		apiKey:         apiKey,
		client:         &http.Client{},
		logs:           DiscardSink,
		defaultTimeout: DefaultUploadTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildUploadRequest validates the session ID and front image and strips
// data URI prefixes. Missing back/angled images are left nil so they are
// omitted from the JSON body.
func BuildUploadRequest(sessionID string, images Images) (*model.UploadRequest, error) {
	if !ValidSessionID(sessionID) {
		return nil, apperrors.InvalidInput("sessionId", "must be exactly 12 digits")
	}

	front := StripDataURI(images.Front)
	if front == "" {
		return nil, apperrors.MissingRequired("frontImageData")
	}

	req := &model.UploadRequest{
		SessionID:      sessionID,
		FrontImageData: front,
	}
	if back := StripDataURI(images.Back); back != "" {
		req.BackImageData = &back
	}
	if angled := StripDataURI(images.Angled); angled != "" {
		req.AngledImageData = &angled
	}
	return req, nil
}

// Upload posts one capture session to the remote service within timeout
// (the client default when timeout <= 0) and returns the normalized result.
func (c *Client) Upload(ctx context.Context, sessionID string, images Images, timeout time.Duration) (*model.AnalysisResult, error) {
	uploadReq, err := BuildUploadRequest(sessionID, images)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(uploadReq)
	if err != nil {
		return nil, apperrors.Internal("failed to encode upload request").WithCause(err)
	}

	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL + c.uploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("failed to create upload request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	c.logs.Record(LogEntry{
		SessionID: sessionID,
		Kind:      model.LogKindRequest,
		Message:   fmt.Sprintf("POST %s (%d bytes, back=%t, angled=%t)", c.uploadPath, len(body), uploadReq.BackImageData != nil, uploadReq.AngledImageData != nil),
	})
	log.Info().
		Str("sessionId", sessionID).
		Str("url", url).
		Int("bytes", len(body)).
		Dur("timeout", timeout).
		Msg("relaying upload to authentication service")

	start := time.Now()
	status, respBody, err := c.do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.recordFailure(sessionID, status, elapsed, err)
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		appErr := apperrors.New(apperrors.ErrCodeRemoteService, "Authentication service returned invalid JSON").
			WithDetails(apperrors.RemoteDetails{Status: status, Body: truncate(respBody)}).
			WithCause(err)
		c.recordFailure(sessionID, status, elapsed, appErr)
		return nil, appErr
	}

	shape := DetectShape(parsed)
	result := Normalize(parsed, sessionID, c.now())

	c.logs.Record(LogEntry{
		SessionID:  sessionID,
		Kind:       model.LogKindResponse,
		Status:     status,
		DurationMs: elapsed.Milliseconds(),
		Message:    fmt.Sprintf("shape=%s rating=%d authentic=%t", shape, result.AuthenticityRating, result.Authentic),
	})
	log.Info().
		Str("sessionId", sessionID).
		Int("status", status).
		Str("shape", string(shape)).
		Int("rating", result.AuthenticityRating).
		Dur("elapsed", elapsed).
		Msg("authentication service responded")

	return &result, nil
}

// Ping checks that the remote service answers its health endpoint.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+DefaultHealthPath, nil)
	if err != nil {
		return apperrors.Internal("failed to create health request").WithCause(err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	status, _, err := c.do(req)
	if err != nil {
		log.Warn().Err(err).Int("status", status).Dur("elapsed", time.Since(start)).Msg("authentication service health check failed")
		return err
	}
	return nil
}

// do sends req and returns the status and body of a 2xx reply, or a
// classified AppError.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, body, apperrors.RemoteService(resp.StatusCode, truncate(body))
	}

	return resp.StatusCode, body, nil
}

func (c *Client) recordFailure(sessionID string, status int, elapsed time.Duration, err error) {
	c.logs.Record(LogEntry{
		SessionID:  sessionID,
		Kind:       model.LogKindError,
		Status:     status,
		DurationMs: elapsed.Milliseconds(),
		Message:    err.Error(),
	})
	log.Error().
		Err(err).
		Str("sessionId", sessionID).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("authentication service call failed")
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Timeout(err)
	}
	return apperrors.Network(err)
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "..."
	}
	return string(body)
}
