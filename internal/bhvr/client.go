package bhvr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrNoToken          = errors.New("no bearer token")
)

// Client talks to the match-history API directly, outside of the host page
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithEndpoint overrides the match-history URL
func WithEndpoint(url string) ClientOption {
	return func(c *Client) {
		c.endpoint = url
	}
}

// NewClient creates a client on top of the given transport. Callers that also intercept
// traffic must pass the unwrapped transport here so direct requests are not observed twice.
func NewClient(transport http.RoundTripper, opts ...ClientOption) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		endpoint: DefaultMatchHistoryURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL the client fetches
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchMatchHistory issues a single authenticated request for the match list
func (c *Client) FetchMatchHistory(ctx context.Context, token string) ([]MatchEntry, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read match history: %w", err)
	}

	return ParseMatchList(body)
}
