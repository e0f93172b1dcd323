// Package apify provides a client for running Apify actors synchronously and
// collecting their dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Client runs Apify actors.
type Client interface {
	// RunSync starts actorID with input, waits for the run to finish and
	// returns the items of its default dataset.
	RunSync(ctx context.Context, actorID string, input any) ([]json.RawMessage, error)
}

// APIError is returned when Apify responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRunTimeout sets the run timeout Apify enforces server-side.
func WithRunTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.runTimeout = d
	}
}

type httpClient struct {
	token      string
	baseURL    string
	runTimeout time.Duration
	http       *http.Client
}

// NewClient creates an Apify client authenticated with token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:      token,
		baseURL:    defaultBaseURL,
		runTimeout: 60 * time.Second,
		http: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ActorPath converts "owner/name" actor ids to the "owner~name" form the API
// expects in URLs.
func ActorPath(actorID string) string {
	return strings.ReplaceAll(actorID, "/", "~")
}

func (c *httpClient) RunSync(ctx context.Context, actorID string, input any) ([]json.RawMessage, error) {
	if actorID == "" {
		return nil, eris.New("apify: actor id is required")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "apify: marshal input")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("clean", "true")
	if c.runTimeout > 0 {
		q.Set("timeout", strconv.Itoa(int(c.runTimeout.Seconds())))
	}
	reqURL := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?%s", c.baseURL, ActorPath(actorID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "apify: run actor %s", actorID)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apify: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 300)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, eris.Wrap(err, "apify: unmarshal dataset items")
	}

	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
