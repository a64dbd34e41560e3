// Package event answers search requests posted as GitHub issues and issue comments.
package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/usecase/search"
)

const commandPrefix = "search"

// Searcher answers a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
}

// Commenter posts a comment on an issue.
type Commenter interface {
	CreateComment(ctx context.Context, repo string, issue int, body string) error
}

// Payload is the subset of a GitHub issues / issue_comment event that is read.
type Payload struct {
	Action string `json:"action"`
	Issue  struct {
		Number int    `json:"number"`
		Body   string `json:"body"`
	} `json:"issue"`
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// Outcome says what Handle did.
type Outcome string

const (
	OutcomeCommented Outcome = "commented"
	OutcomeIgnored   Outcome = "ignored"
)

// Handler turns events into search comments.
type Handler struct {
	searcher  Searcher
	commenter Commenter
	logger    *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(searcher Searcher, commenter Commenter, logger *zap.Logger) *Handler {
	return &Handler{searcher: searcher, commenter: commenter, logger: logger}
}

// ParsePayload decodes a raw event file. Failures match domain.ErrParse.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: event payload: %w", domain.ErrParse, err)
	}
	return p, nil
}

// Query extracts the search text. An opened or edited issue searches its body.
// A created comment searches the text after its leading "search" word, case-insensitive.
// ok is false when the event carries no request.
func (p Payload) Query() (string, bool) {
	switch {
	case p.Comment != nil && p.Action == "created":
		body := strings.TrimSpace(p.Comment.Body)
		if len(body) < len(commandPrefix) || !strings.EqualFold(body[:len(commandPrefix)], commandPrefix) {
			return "", false
		}
		_, rest, found := strings.Cut(body, " ")
		rest = strings.TrimSpace(rest)
		return rest, found && rest != ""
	case p.Comment == nil && (p.Action == "opened" || p.Action == "edited"):
		body := strings.TrimSpace(p.Issue.Body)
		return body, body != ""
	default:
		return "", false
	}
}

// Handle searches the event's query and posts the formatted hits, or the not-found
// message, as one comment on the issue.
func (h *Handler) Handle(ctx context.Context, p Payload) (Outcome, error) {
	query, ok := p.Query()
	if !ok {
		h.logger.Info("Event carries no search request",
			zap.String("action", p.Action),
			zap.Int("issue", p.Issue.Number),
		)
		return OutcomeIgnored, nil
	}
	if p.Repository.FullName == "" || p.Issue.Number <= 0 {
		return OutcomeIgnored, fmt.Errorf("%w: event without repository or issue number", domain.ErrParse)
	}

	hits, err := h.searcher.Search(ctx, query)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("search %q: %w", query, err)
	}

	if err := h.commenter.CreateComment(ctx, p.Repository.FullName, p.Issue.Number, search.FormatText(hits)); err != nil {
		return OutcomeIgnored, err
	}
	h.logger.Info("Search results posted",
		zap.String("repo", p.Repository.FullName),
		zap.Int("issue", p.Issue.Number),
		zap.Int("hits", len(hits)),
	)
	return OutcomeCommented, nil
}
