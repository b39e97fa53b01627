package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/metadata"
	"github.com/xraph/pushsync/retry"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client against the service's device REST API.
//
// All requests pass through a client-side token-bucket rate limiter so a
// burst of queued jobs cannot hammer the service. Transient failures
// (network errors, 408/429, 5xx) are marked retryable and absorbed by the
// retry policy of the calling operation.
type HTTPClient struct {
	baseURL    string
	instanceID string
	secretKey  string
	platform   string
	httpc      *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithBaseURL overrides the service base URL (useful for tests and
// self-hosted deployments).
func WithBaseURL(u string) HTTPOption {
	return func(c *HTTPClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpc = hc }
}

// WithPlatform sets the device platform segment ("apns", "fcm", ...).
// Defaults to "apns".
func WithPlatform(p string) HTTPOption {
	return func(c *HTTPClient) { c.platform = p }
}

// WithRateLimit sets the sustained request rate and burst for the
// client-side limiter. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(l *slog.Logger) HTTPOption {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient creates a client for the given service instance.
func NewHTTPClient(instanceID, secretKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    fmt.Sprintf("https://%s.pushnotifications.pusher.com", instanceID),
		instanceID: instanceID,
		secretKey:  secretKey,
		platform:   "apns",
		httpc:      &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// registerRequest is the Register request body.
type registerRequest struct {
	Token    string            `json:"token"`
	Metadata metadata.Metadata `json:"metadata"`
}

// registerResponse is the Register response body.
type registerResponse struct {
	ID               string   `json:"id"`
	InitialInterests []string `json:"initialInterestSet"`
}

// Register implements Client.
func (c *HTTPClient) Register(ctx context.Context, token string, md metadata.Metadata, p retry.Policy) (*Device, error) {
	body, err := json.Marshal(registerRequest{Token: token, Metadata: md})
	if err != nil {
		return nil, fmt.Errorf("api: marshal register request: %w", err)
	}

	var resp registerResponse
	err = retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, c.devicesPath(), body, &resp)
	})
	if err != nil {
		return nil, err
	}

	return &Device{
		ID:               resp.ID,
		InitialInterests: interest.FromSlice(resp.InitialInterests),
	}, nil
}

// Subscribe implements Client.
func (c *HTTPClient) Subscribe(ctx context.Context, deviceID, interestName string, p retry.Policy) error {
	path := c.interestPath(deviceID, interestName)
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, path, nil, nil)
	})
}

// Unsubscribe implements Client.
func (c *HTTPClient) Unsubscribe(ctx context.Context, deviceID, interestName string, p retry.Policy) error {
	path := c.interestPath(deviceID, interestName)
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodDelete, path, nil, nil)
	})
}

// SetSubscriptions implements Client.
func (c *HTTPClient) SetSubscriptions(ctx context.Context, deviceID string, interests []string, p retry.Policy) error {
	body, err := json.Marshal(struct {
		Interests []string `json:"interests"`
	}{Interests: interests})
	if err != nil {
		return fmt.Errorf("api: marshal interests: %w", err)
	}

	path := c.devicePath(deviceID) + "/interests"
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPut, path, body, nil)
	})
}

// SetUserID implements Client.
func (c *HTTPClient) SetUserID(ctx context.Context, deviceID, userID string, p retry.Policy) error {
	body, err := json.Marshal(struct {
		UserID string `json:"userId"`
	}{UserID: userID})
	if err != nil {
		return fmt.Errorf("api: marshal user id: %w", err)
	}

	path := c.devicePath(deviceID) + "/user"
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPut, path, body, nil)
	})
}

// SetMetadata implements Client.
func (c *HTTPClient) SetMetadata(ctx context.Context, deviceID string, md metadata.Metadata, p retry.Policy) error {
	body, err := json.Marshal(struct {
		Metadata metadata.Metadata `json:"metadata"`
	}{Metadata: md})
	if err != nil {
		return fmt.Errorf("api: marshal metadata: %w", err)
	}

	path := c.devicePath(deviceID) + "/metadata"
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPut, path, body, nil)
	})
}

// DeleteDevice implements Client.
func (c *HTTPClient) DeleteDevice(ctx context.Context, deviceID string, p retry.Policy) error {
	path := c.devicePath(deviceID)
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodDelete, path, nil, nil)
	})
}

// devicesPath returns the device collection path for this instance.
func (c *HTTPClient) devicesPath() string {
	return fmt.Sprintf("/device_api/v1/instances/%s/devices/%s",
		url.PathEscape(c.instanceID), url.PathEscape(c.platform))
}

// devicePath returns the path for one device.
func (c *HTTPClient) devicePath(deviceID string) string {
	return c.devicesPath() + "/" + url.PathEscape(deviceID)
}

// interestPath returns the path for one device/interest pair.
func (c *HTTPClient) interestPath(deviceID, interestName string) string {
	return c.devicePath(deviceID) + "/interests/" + url.PathEscape(interestName)
}

// do performs one HTTP attempt and classifies the outcome. Network errors
// and retryable statuses are marked transient for the retry policy; other
// failures map onto the closed Error code set.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Network-level failure: always retryable.
		return retry.Transient(fmt.Errorf("api: %s %s: %w", method, path, err))
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
			return fmt.Errorf("api: decode %s %s response: %w", method, path, decErr)
		}
		return nil
	}

	apiErr := c.classify(resp)
	if isRetryableStatus(resp.StatusCode) {
		return retry.Transient(apiErr)
	}

	c.logger.Debug("terminal api error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("code", string(apiErr.Code)),
	)

	return apiErr
}

// errorResponse is the service's error body shape.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// classify maps a non-2xx response onto the closed Error code set.
func (c *HTTPClient) classify(resp *http.Response) *Error {
	var body errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body) //nolint:errcheck // best effort; status alone classifies

	msg := body.Description
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := CodeBadRequest
	switch {
	case resp.StatusCode == http.StatusNotFound:
		code = CodeDeviceNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = CodeInvalidToken
	case resp.StatusCode >= 500:
		code = CodeInternal
	}

	return &Error{Code: code, Status: resp.StatusCode, Message: msg}
}

// isRetryableStatus reports whether the status indicates a transient
// condition worth retrying.
func isRetryableStatus(status int) bool {
	switch {
	case status >= 500:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
