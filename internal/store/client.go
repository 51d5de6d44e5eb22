// Package store talks to the content store's HTTP API: page listings,
// document reads and authenticated document writes.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/version"
)

const (
	// HeaderForwardedHost carries the original hostname when connections are rerouted.
	HeaderForwardedHost = "X-Forwarded-Host"

	// maxErrorBody caps how much of an error response body is kept.
	maxErrorBody = 64 * 1024
)

// Options configures a Client.
type Options struct {
	// TargetHost, when set, is the backend address every connection is routed to
	// ("10.0.0.5" or "10.0.0.5:3001").
	TargetHost string
	// ForwardedHost overrides the X-Forwarded-Host value; defaults to the URL hostname.
	ForwardedHost string
	// AccessToken authorizes writes ("authorization: token {AccessToken}").
	AccessToken string
	// Timeout bounds each request; zero leaves it to the transport.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool
	// RequestsPerSecond throttles all requests when positive.
	RequestsPerSecond float64
	// Concurrency sizes the idle connection pool.
	Concurrency int
}

// Client issues content store requests.
type Client struct {
	httpClient    *http.Client
	token         string
	forwardedHost string
	limiter       *rate.Limiter
}

// NewClient builds a Client with its own transport.
func NewClient(opts Options) *Client {
	return NewClientWithHTTP(&http.Client{
		Transport: newTransport(opts),
		Timeout:   opts.Timeout,
	}, opts)
}

// NewClientWithHTTP builds a Client on an existing http.Client. Routing
// options are the caller's responsibility.
func NewClientWithHTTP(httpClient *http.Client, opts Options) *Client {
	c := &Client{
		httpClient:    httpClient,
		token:         opts.AccessToken,
		forwardedHost: opts.ForwardedHost,
	}
	if opts.RequestsPerSecond > 0 {
		burst := max(1, int(opts.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// ListPages returns the draft page references listed at {site}/_pages.
func (c *Client) ListPages(ctx context.Context, site string) ([]string, error) {
	endpoint := strings.TrimSuffix(site, "/") + "/_pages"
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var refs []string
	if err := json.NewDecoder(resp.Body).Decode(&refs); err != nil {
		return nil, errors.StoreError("failed to decode page listing").
			WithCause(err).
			WithContext("url", endpoint).
			Build()
	}
	return refs, nil
}

// GetDocument fetches the JSON document at url.
func (c *Client) GetDocument(ctx context.Context, url string) (content.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := content.DecodeDocument(resp.Body)
	if err != nil {
		return nil, errors.StoreError("failed to decode document").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	return doc, nil
}

// PutDocument writes doc to url with the configured access token.
func (c *Client) PutDocument(ctx context.Context, url string, doc content.Document) error {
	body, err := doc.Encode()
	if err != nil {
		return errors.InternalError("failed to encode document").
			WithCause(err).
			WithContext("url", url).
			Build()
	}

	req, err := c.newRequest(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+c.token)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.ConfigError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", url).
			Build()
	}

	forwarded := c.forwardedHost
	if forwarded == "" {
		forwarded = req.URL.Hostname()
	}
	req.Header.Set(HeaderForwardedHost, forwarded)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "layoutswap/"+version.Version)
	return req, nil
}

// do executes req and converts non-2xx responses into classified errors
// carrying the status code and response body text.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, errors.NetworkError("rate limiter wait aborted").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NetworkError("content store request failed").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	bodyStr := strings.TrimSpace(string(limitedBody))

	category := errors.CategoryStore
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = errors.CategoryAuth
	case http.StatusNotFound:
		category = errors.CategoryNotFound
	}

	return nil, errors.NewError(category, fmt.Sprintf("content store returned %s", resp.Status)).
		WithContext("method", req.Method).
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", bodyStr).
		Build()
}
