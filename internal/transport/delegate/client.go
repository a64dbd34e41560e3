// Package delegate calls an external HTTP search service that answers poem queries.
//
// The wire format is the one served by poemdex itself on GET /v1/search, so one
// instance can front another.
package delegate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
)

const maxErrorBody = 512

// Config holds delegate endpoint settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client queries the external search service.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Response is the JSON body returned by the service.
type Response struct {
	Results []result.Result `json:"results"`
}

// NewClient creates a delegate client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("delegate: url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("delegate: api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Search asks the service for hits. Empty author means unfiltered.
// Transport failures and non-2xx statuses match domain.ErrExternalDelegate.
func (c *Client) Search(ctx context.Context, query, author string, limit int) ([]result.Result, error) {
	params := url.Values{}
	params.Set("q", query)
	if author != "" {
		params.Set("author", author)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrExternalDelegate, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExternalDelegate, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.DelegateStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrExternalDelegate, err)
	}
	if parsed.Results == nil {
		parsed.Results = []result.Result{}
	}
	return parsed.Results, nil
}
