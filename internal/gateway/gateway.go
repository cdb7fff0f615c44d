// Package gateway is the single outbound request path to the marketplace
// backend. It attaches the bearer credential, tags every request with a ULID
// request id, and on a 401 transparently attempts exactly one token
// refresh-and-retry before giving up.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Authenticator is the session manager's face as seen by the gateway.
// Wired after construction: the session manager itself issues its auth calls
// through this client.
type Authenticator interface {
	// Token returns the current bearer credential, if any.
	Token() (string, bool)
	// ShouldRefresh advises whether the credential is close enough to expiry
	// to be worth exchanging before use.
	ShouldRefresh() bool
	// RefreshToken performs one silent token exchange. Returns false when the
	// session could not be extended.
	RefreshToken(ctx context.Context) bool
	// ForceLogout tears the session down after an unrecoverable 401.
	ForceLogout()
}

// Client issues HTTP calls against the backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu   sync.RWMutex
	auth Authenticator

	entropy   io.Reader
	entropyMu sync.Mutex
}

// New builds a client for the given base URL. A zero timeout falls back to
// 30 seconds.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// SetAuthenticator wires the session manager in. Constructed separately to
// break the cycle between the manager (which calls the gateway) and the
// gateway (which asks the manager for refreshes).
func (c *Client) SetAuthenticator(a Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// RequestID mints a ULID used to correlate a request across client logs and
// backend traces.
func (c *Client) RequestID() string {
	c.entropyMu.Lock()
	defer c.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

type callOptions struct {
	skipBearer    bool
	skipAuthRetry bool
	contentType   string
	headers       http.Header
}

// Option adjusts a single call.
type Option func(*callOptions)

// WithoutAuth issues the call with no bearer header and no 401 retry.
// Used for login and registration.
func WithoutAuth() Option {
	return func(o *callOptions) {
		o.skipBearer = true
		o.skipAuthRetry = true
	}
}

// WithoutRetry keeps the bearer header but disables the 401
// refresh-and-retry. The refresh call itself must use this, or a rejected
// refresh would recurse forever.
func WithoutRetry() Option {
	return func(o *callOptions) {
		o.skipAuthRetry = true
	}
}

// WithContentType overrides the request content type, e.g. for multipart
// uploads where the body is a prepared io.Reader.
func WithContentType(contentType string) Option {
	return func(o *callOptions) {
		o.contentType = contentType
	}
}

// WithHeader sets an extra header on the call. A caller-supplied
// Authorization header suppresses the gateway's own bearer.
func WithHeader(key, value string) Option {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// Do issues one request. body may be nil, an io.Reader (sent as-is, no 401
// retry since the stream cannot be replayed), or any JSON-marshalable value.
// A non-nil out receives the decoded 2xx response body; a malformed body on
// an otherwise successful response is absorbed as a zero value.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}, opts ...Option) error {
	options := callOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var payload []byte
	var stream io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		stream = b
		// A raw stream cannot be rewound for a second attempt.
		options.skipAuthRetry = true
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
		if options.contentType == "" {
			options.contentType = "application/json"
		}
	}

	// Advisory pre-flight refresh: when the credential is near expiry,
	// exchange it before spending a round trip on a guaranteed 401. Failure
	// here is not fatal; the 401 path below still gets its one retry.
	if !options.skipAuthRetry {
		if auth := c.authenticator(); auth != nil && auth.ShouldRefresh() {
			_ = auth.RefreshToken(ctx)
		}
	}

	resp, bodyBytes, err := c.attempt(ctx, method, endpoint, payload, stream, &options)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !options.skipAuthRetry {
		auth := c.authenticator()
		if auth == nil {
			return c.httpError(resp.StatusCode, bodyBytes)
		}

		c.logger.Debug("received 401, attempting silent token refresh",
			zap.String("endpoint", endpoint))

		if !auth.RefreshToken(ctx) {
			auth.ForceLogout()
			return newSessionExpiredError(resp.StatusCode)
		}

		// Exactly one retry with the new credential. A second 401 surfaces
		// as a session-expired error; it never loops.
		resp, bodyBytes, err = c.attempt(ctx, method, endpoint, payload, nil, &options)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return newSessionExpiredError(resp.StatusCode)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.httpError(resp.StatusCode, bodyBytes)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bodyBytes) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		// Soft failure: prefer an empty result over crashing the caller.
		c.logger.Warn("failed to decode response body",
			zap.String("endpoint", endpoint),
			zap.Error(err))
	}
	return nil
}

// attempt performs a single HTTP round trip and drains the body.
func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte, stream io.Reader, options *callOptions) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if stream != nil {
		reqBody = stream
	} else if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range options.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if options.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", options.contentType)
	}
	req.Header.Set("X-Request-ID", c.RequestID())

	if !options.skipBearer && req.Header.Get("Authorization") == "" {
		if auth := c.authenticator(); auth != nil {
			if token, ok := auth.Token(); ok {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed before a response arrived",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, newNetworkError(err)
	}
	return resp, bodyBytes, nil
}

// httpError builds the error result for a non-2xx, non-retried response,
// preferring the server's message field over the bare status text.
func (c *Client) httpError(status int, body []byte) *APIError {
	message := http.StatusText(status)

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		if envelope.Message != "" {
			message = envelope.Message
		} else if envelope.Error != "" {
			message = envelope.Error
		}
	}

	return &APIError{Status: status, Message: message, Kind: KindHTTP}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out, opts...)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out, opts...)
}

// Put issues a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out, opts...)
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, out, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...Option) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil, opts...)
}
