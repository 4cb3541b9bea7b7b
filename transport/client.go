// Package transport is the single outbound gateway for the console client.
// The Client attaches auth and correlation headers, the Executor bounds
// retries, and the Refresher serializes 401-triggered token refreshes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultHTTPTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to outbound requests.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Client is the chokepoint every authenticated request passes through.
// Header attachment lives here; retries and refreshes are delegated, so the
// wrapper itself stays intentionally dumb.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	refresher  *Refresher
	exec       *Executor
	log        zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithExecutor overrides the retry executor.
func WithExecutor(e *Executor) ClientOption {
	return func(c *Client) {
		c.exec = e
	}
}

// WithRefresher wires the 401 refresh coordinator. Without one, a 401 is
// surfaced to the caller unchanged.
func WithRefresher(r *Refresher) ClientOption {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates the outbound gateway for a backend base URL.
func NewClient(baseURL string, tokens TokenSource, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		tokens:     tokens,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.exec == nil {
		c.exec = NewExecutor(c.log)
	}
	return c, nil
}

// BaseURL returns the backend base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client, for collaborators (like the
// refresh call) that must bypass the authenticated gateway.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Call performs an authenticated JSON request through the retry executor and
// decodes a successful body into out (which may be nil). Every failure is
// returned as a classified *apierror.Error.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return apierror.Unknown(errors.Wrap(err, "[Client.Call] marshal request body"))
		}
	}

	resp, err := c.exec.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		return c.do(ctx, method, path, payload)
	})
	if err != nil {
		return apierror.From(err)
	}
	defer drainBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierror.Unknown(errors.Wrap(err, "[Client.Call] decode response body"))
	}
	return nil
}

// do performs one logical attempt: send, and on a 401 run exactly one
// refresh-and-replay cycle. A second 401 after the replay is terminal.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	bearer := ""
	if c.tokens != nil {
		bearer, _ = c.tokens.AccessToken()
	}

	resp, err := c.send(ctx, method, path, payload, bearer)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.refresher == nil {
		return resp, nil
	}
	drainBody(resp)

	freshToken, err := c.refresher.Token(ctx)
	if err != nil {
		return nil, err
	}

	replayed, err := c.send(ctx, method, path, payload, freshToken)
	if err != nil {
		return nil, err
	}
	if replayed.StatusCode == http.StatusUnauthorized {
		drainBody(replayed)
		c.log.Warn().Str("path", path).Msg("request rejected again after token refresh")
		return nil, apierror.AuthExpired()
	}
	return replayed, nil
}

// send issues a single HTTP request with auth and correlation headers.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, bearer string) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	correlationID := ensureCorrelationID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.send] %s %s (correlation %s)", method, path, correlationID)
	}
	return resp, nil
}
