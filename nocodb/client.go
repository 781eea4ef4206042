// Package nocodb is an HTTP client for the NocoDB v3 API. Filters built
// with the where package attach to list/count calls as the `where` query
// parameter; the server parses that string, this client never does.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sgoldberg/nocogo/fault"
)

// AuthToken supplies the authentication header for every request.
type AuthToken interface {
	Header() (key, value string)
}

// APIToken authenticates with an `xc-token` header (service tokens).
type APIToken string

func (t APIToken) Header() (string, string) { return "xc-token", string(t) }

// JWTAuthToken authenticates with an `xc-auth` header (user sessions).
type JWTAuthToken string

func (t JWTAuthToken) Header() (string, string) { return "xc-auth", string(t) }

type Config struct {
	// BaseURL is the server root, e.g. "https://app.nocodb.com".
	BaseURL string

	Auth AuthToken

	// HTTPClient defaults to one with a 30s timeout.
	HTTPClient *http.Client

	Logger *slog.Logger

	// RetryAttempts bounds retries of transport errors and 429/5xx
	// responses. Defaults to 3.
	RetryAttempts uint
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("server base URL is required")
	}
	if c.Auth == nil {
		return errors.New("auth token is required")
	}

	return nil
}

type Client struct {
	cfg    Config
	http   *http.Client
	uris   URIBuilder
	logger *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		uris:   NewURIBuilder(cfg.BaseURL),
		logger: logger,
	}, nil
}

// URIs exposes the client's endpoint builder.
func (c *Client) URIs() URIBuilder {
	return c.uris
}

// do performs one API call: marshals body, attaches auth and query
// parameters, retries retryable failures, and decodes the response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, uri string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fault.New(fault.ValidationCode, "cannot encode request body").WithOriginal(err)
		}
	}

	if len(query) > 0 {
		uri = uri + "?" + query.Encode()
	}

	logger := c.logger.With("request_id", uuid.NewString(), "method", method, "uri", uri)
	logger.Debug("outgoing request")

	var raw []byte
	err := retry.Do(
		func() error {
			var err error
			raw, err = c.roundTrip(ctx, method, uri, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		logger.Debug("request failed", "error", err)
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fault.New(fault.RemoteCode, "cannot decode response body").WithOriginal(err)
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, uri string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, retry.Unrecoverable(fault.New(fault.ValidationCode, "cannot build request").WithOriginal(err))
	}

	key, value := c.cfg.Auth.Header()
	req.Header.Set(key, value)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors are retryable.
		return nil, fault.New(fault.RemoteCode, "request failed").WithOriginal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.New(fault.RemoteCode, "cannot read response body").WithOriginal(err)
	}

	if resp.StatusCode >= 400 {
		f := statusFault(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, f
		}
		return nil, retry.Unrecoverable(f)
	}

	return raw, nil
}

// statusFault maps an error response to a fault code. The response body is
// kept as metadata; servers return a JSON error envelope but its shape is
// not guaranteed across versions.
func statusFault(status int, body []byte) fault.Fault {
	msg := fmt.Sprintf("server returned %d", status)

	var f fault.Fault
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		f = fault.New(fault.ValidationCode, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		f = fault.New(fault.PermissionDeniedCode, msg)
	case http.StatusNotFound:
		f = fault.New(fault.NotFoundCode, msg)
	case http.StatusTooManyRequests:
		f = fault.New(fault.RateLimitedCode, msg)
	default:
		f = fault.New(fault.RemoteCode, msg)
	}

	if len(body) > 0 {
		f = f.WithMetadata(string(body))
	}

	return f
}
