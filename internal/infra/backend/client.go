// Package backend provides a client for the hosted catalog backend:
// PostgREST tables, object storage and password authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/musicbox/internal/domain/account"
)

// Config represents backend client configuration.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Client is a backend API client.
// Requests carry the anon key as "apikey" and a bearer token: the anon key
// until a user signs in, the user's access token afterwards.
type Client struct {
	baseURL string
	anonKey string

	// Plain client used for token endpoints
	rawHTTP *http.Client

	// Client that attaches the current bearer token
	httpClient *http.Client

	// Current session
	mu        sync.RWMutex
	session   *account.Session
	tokens    oauth2.TokenSource
	onRefresh func(*account.Session)
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("backend URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("backend anon key is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, errors.Wrap(err, "invalid backend URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		rawHTTP: &http.Client{Timeout: cfg.Timeout},
	}
	c.tokens = c.anonTokens()
	c.httpClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: tokenSourceFunc(c.currentToken),
			Base:   http.DefaultTransport,
		},
	}
	return c, nil
}

// OnRefresh registers a callback invoked after the access token was
// refreshed, so callers can persist the new session.
func (c *Client) OnRefresh(fn func(*account.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

// tokenSourceFunc adapts a function to oauth2.TokenSource.
type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) {
	return f()
}

func (c *Client) currentToken() (*oauth2.Token, error) {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	return ts.Token()
}

func (c *Client) anonTokens() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: c.anonKey,
		TokenType:   "Bearer",
	})
}

// request describes a single API call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	raw     io.Reader
	headers map[string]string

	// Use the plain client (token endpoints)
	anonymous bool
}

// do executes the request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	reqURL := c.baseURL + req.path
	if len(req.query) > 0 {
		reqURL += "?" + req.query.Encode()
	}

	body := req.raw
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("apikey", c.anonKey)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	client := c.httpClient
	if req.anonymous {
		client = c.rawHTTP
		httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "failed to send request %s %s", req.method, req.path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	zlog.Debug().Msgf("backend: %s %s -> %d (%v)", req.method, req.path, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
