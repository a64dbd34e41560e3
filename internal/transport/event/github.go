package event

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const maxErrorBody = 512

// GitHubClient posts issue comments through the GitHub REST API.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGitHubClient creates a client for baseURL (https://api.github.com for github.com).
func NewGitHubClient(baseURL, token string) (*GitHubClient, error) {
	if token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	return &GitHubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CreateComment posts body on issue number of repo ("owner/name").
func (c *GitHubClient) CreateComment(ctx context.Context, repo string, issue int, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("github: encode comment: %w", err)
	}

	endpoint := c.baseURL + "/repos/" + repo + "/issues/" + strconv.Itoa(issue) + "/comments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: create comment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("github: create comment: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
